// Package client is a workout.Repository that talks to the REST server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// DefaultTimeout bounds each request when the config leaves it unset.
const DefaultTimeout = 10 * time.Second

// Client calls /api/workouts on a circuit-timer server. Fetched workouts are
// kept for CacheTTL so reopening a session does not need the network. Writes
// through this client update the cache; edits made elsewhere show up once an
// entry expires or the list is reloaded.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *gocache.Cache // nil when caching is off
	logger  *log.Logger
}

var _ workout.Repository = (*Client)(nil)

// NewClientArg holds the arguments for NewClient
type NewClientArg struct {
	BaseURL    string
	Timeout    time.Duration // defaults to DefaultTimeout
	HTTPClient *http.Client  // optional
	CacheTTL   time.Duration // 0 disables the fetch cache
	Logger     *log.Logger
}

func NewClient(args NewClientArg) (*Client, error) {
	if args.Logger == nil {
		panic("WorkoutClient: logger cannot be nil")
	}
	base, err := url.Parse(strings.TrimRight(args.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", args.BaseURL)
	}

	hc := args.HTTPClient
	if hc == nil {
		timeout := args.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{baseURL: base, http: hc, logger: args.Logger}
	if args.CacheTTL > 0 {
		c.cache = gocache.New(args.CacheTTL, 2*args.CacheTTL)
	}
	return c, nil
}

func (c *Client) ListWorkouts(ctx context.Context) ([]workout.Definition, error) {
	var out []workout.Definition
	if err := c.do(ctx, "list workouts", http.MethodGet, "/api/workouts", 0, nil, &out); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Flush()
		for _, d := range out {
			c.remember(d)
		}
	}
	return out, nil
}

func (c *Client) FetchWorkout(ctx context.Context, id int64) (workout.Definition, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey(id)); ok {
			return v.(workout.Definition), nil
		}
	}
	var out workout.Definition
	if err := c.do(ctx, "fetch workout", http.MethodGet, workoutPath(id), id, nil, &out); err != nil {
		return out, err
	}
	c.remember(out)
	return out, nil
}

func (c *Client) CreateWorkout(ctx context.Context, d workout.Definition) (workout.Definition, error) {
	var out workout.Definition
	if err := c.do(ctx, "create workout", http.MethodPost, "/api/workouts", 0, d, &out); err != nil {
		return out, err
	}
	c.remember(out)
	return out, nil
}

func (c *Client) UpdateWorkout(ctx context.Context, id int64, d workout.Definition) (workout.Definition, error) {
	var out workout.Definition
	err := c.do(ctx, "update workout", http.MethodPut, workoutPath(id), id, d, &out)
	if err != nil {
		c.forget(id)
		return out, err
	}
	c.remember(out)
	return out, nil
}

func (c *Client) DeleteWorkout(ctx context.Context, id int64) error {
	c.forget(id)
	return c.do(ctx, "delete workout", http.MethodDelete, workoutPath(id), id, nil, nil)
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *Client) remember(d workout.Definition) {
	if c.cache == nil || d.ID <= 0 {
		return
	}
	c.cache.Set(cacheKey(d.ID), d, gocache.DefaultExpiration)
}

func (c *Client) forget(id int64) {
	if c.cache != nil {
		c.cache.Delete(cacheKey(id))
	}
}

func workoutPath(id int64) string {
	return "/api/workouts/" + strconv.FormatInt(id, 10)
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request. A 404 becomes *workout.NotFoundError, a 400
// *workout.PreconditionError, and everything else that is not a 2xx a
// *workout.TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, id int64, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return &workout.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("WorkoutClient: %s %s failed: %v", method, path, err)
		return &workout.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &workout.NotFoundError{ID: id}
	case resp.StatusCode == http.StatusBadRequest:
		return &workout.PreconditionError{Reason: readError(resp.Body, resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		reason := readError(resp.Body, resp.Status)
		c.logger.Printf("WorkoutClient: %s %s returned %s", method, path, resp.Status)
		return &workout.TransportError{Op: op, Err: fmt.Errorf("server returned %s: %s", resp.Status, reason)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &workout.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func readError(r io.Reader, fallback string) string {
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&eb); err != nil || eb.Error == "" {
		return fallback
	}
	return eb.Error
}
