//go:build !unix

package platform

// watch has no host notification to follow here; only SetVisible publishes.
func (v *Visibility) watch() func() {
	return func() {}
}
