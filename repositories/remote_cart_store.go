package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"greenbasket/models"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxErrorBody = 4 << 10

// CSRFToken is the anti-forgery header the hosting page hands out. It is
// attached to every mutating request.
type CSRFToken struct {
	Header string
	Value  string
}

type RemoteCartOptions struct {
	BaseURL string
	CSRF    CSRFToken
	// Headers are sent with every request, e.g. the shopper's Authorization.
	Headers http.Header
	Client  *http.Client
	Timeout time.Duration
}

// RemoteCartStore talks to a storefront backend that owns the cart. Every
// call returns the backend's full item list.
type RemoteCartStore struct {
	baseURL *url.URL
	client  *http.Client

	mu      sync.RWMutex
	csrf    CSRFToken
	headers http.Header
}

var _ CartStore = (*RemoteCartStore)(nil)

type cartEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Items   []models.LineItem `json:"items"`
}

func NewRemoteCartStore(opts RemoteCartOptions) (*RemoteCartStore, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", opts.BaseURL)
	}

	client := &http.Client{}
	if opts.Client != nil {
		copied := *opts.Client
		client = &copied
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	// The clear endpoint answers with a page redirect; the redirect itself is the success signal.
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &RemoteCartStore{
		baseURL: base,
		csrf:    opts.CSRF,
		headers: opts.Headers.Clone(),
		client:  client,
	}, nil
}

func (s *RemoteCartStore) Load(ctx context.Context) ([]models.LineItem, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/cart/data", nil)
	if err != nil {
		return nil, err
	}
	return s.doCart(req)
}

func (s *RemoteCartStore) Apply(ctx context.Context, m Mutation) ([]models.LineItem, error) {
	switch m.Kind {
	case MutationAdd:
		return s.postForm(ctx, "/cart/add", m)
	case MutationUpdate:
		return s.postForm(ctx, "/cart/update", m)
	case MutationRemove:
		req, err := s.newRequest(ctx, http.MethodPost, "/cart/remove/"+strconv.FormatInt(m.ProductID, 10), nil)
		if err != nil {
			return nil, err
		}
		return s.doCart(req)
	case MutationClear:
		return s.clear(ctx)
	default:
		return nil, fmt.Errorf("unsupported cart mutation %s", m.Kind)
	}
}

func (s *RemoteCartStore) Authoritative() bool { return true }

// BindSession replaces the credentials sent upstream with the session's
// current bearer token and CSRF token. The CSRF header name is kept.
func (s *RemoteCartStore) BindSession(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrf.Value = session.CSRFToken
	s.headers = s.headers.Clone()
	if s.headers == nil {
		s.headers = http.Header{}
	}
	if session.Token != "" {
		s.headers.Set("Authorization", "Bearer "+session.Token)
	} else {
		s.headers.Del("Authorization")
	}
}

func (s *RemoteCartStore) postForm(ctx context.Context, path string, m Mutation) ([]models.LineItem, error) {
	form := url.Values{}
	form.Set("productId", strconv.FormatInt(m.ProductID, 10))
	form.Set("quantity", m.Quantity.String())

	req, err := s.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.doCart(req)
}

func (s *RemoteCartStore) clear(ctx context.Context) ([]models.LineItem, error) {
	req, err := s.newRequest(ctx, http.MethodPost, "/cart/clear", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /cart/clear: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RejectedError{Status: resp.StatusCode}
	}
	// The storefront reloads the page after clearing; reload the cart the same
	// way. The backend has already emptied the cart, so a failed reload still
	// reports it empty.
	items, err := s.Load(ctx)
	if err != nil {
		return []models.LineItem{}, nil
	}
	return items, nil
}

func (s *RemoteCartStore) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := s.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	s.mu.RLock()
	for key, values := range s.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	csrf := s.csrf
	s.mu.RUnlock()

	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet && csrf.Header != "" {
		req.Header.Set(csrf.Header, csrf.Value)
	}
	return req, nil
}

func (s *RemoteCartStore) doCart(req *http.Request) ([]models.LineItem, error) {
	op := req.Method + " " + req.URL.Path
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env cartEnvelope
		_ = json.Unmarshal(body, &env)
		return nil, &RejectedError{Status: resp.StatusCode, Message: env.Message}
	}

	var env cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !env.Success {
		return nil, &RejectedError{Status: resp.StatusCode, Message: env.Message}
	}
	if env.Items == nil {
		env.Items = []models.LineItem{}
	}
	return env.Items, nil
}
