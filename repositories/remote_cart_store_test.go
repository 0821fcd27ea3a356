package repositories

import (
	"context"
	"errors"
	"greenbasket/models"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartJSON = `{"success":true,"items":[{"id":9,"productId":1,"name":"Apples","quantity":11,"price":8,"imageUrl":"/img/apples.jpg","stockKg":120}],"itemCount":1}`

func newRemote(t *testing.T, handler http.HandlerFunc) (*RemoteCartStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer abc")
	store, err := NewRemoteCartStore(RemoteCartOptions{
		BaseURL: srv.URL + "/",
		CSRF:    CSRFToken{Header: "X-CSRF-TOKEN", Value: "csrf-1"},
		Headers: headers,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return store, srv
}

func TestNewRemoteCartStore_RequiresAbsoluteURL(t *testing.T) {
	_, err := NewRemoteCartStore(RemoteCartOptions{BaseURL: "/cart"})
	assert.Error(t, err)
}

func TestRemoteCartStore_Load(t *testing.T) {
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart/data", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-CSRF-TOKEN"))
		w.Write([]byte(cartJSON))
	})

	items, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, "/img/apples.jpg", items[0].ImageURL)
	assert.True(t, store.Authoritative())
}

func TestRemoteCartStore_AddSendsFormAndCSRF(t *testing.T) {
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/add", r.URL.Path)
		assert.Equal(t, "csrf-1", r.Header.Get("X-CSRF-TOKEN"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.PostForm.Get("productId"))
		assert.Equal(t, "2.5", r.PostForm.Get("quantity"))
		w.Write([]byte(cartJSON))
	})

	items, err := store.Apply(context.Background(), Mutation{
		Kind:      MutationAdd,
		ProductID: 1,
		Quantity:  decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemoteCartStore_UpdateAndRemovePaths(t *testing.T) {
	var paths []string
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"success":true,"items":null,"itemCount":0}`))
	})
	ctx := context.Background()

	_, err := store.Apply(ctx, Mutation{Kind: MutationUpdate, ProductID: 4, Quantity: decimal.NewFromInt(3)})
	require.NoError(t, err)
	items, err := store.Apply(ctx, Mutation{Kind: MutationRemove, ProductID: 4})
	require.NoError(t, err)

	assert.NotNil(t, items)
	assert.Equal(t, []string{"POST /cart/update", "POST /cart/remove/4"}, paths)
}

func TestRemoteCartStore_ClearFollowsRedirectWithReload(t *testing.T) {
	var paths []string
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/cart/clear" {
			http.Redirect(w, r, "/cart", http.StatusFound)
			return
		}
		w.Write([]byte(`{"success":true,"items":[],"itemCount":0}`))
	})

	items, err := store.Apply(context.Background(), Mutation{Kind: MutationClear})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{"POST /cart/clear", "GET /cart/data"}, paths)
}

func TestRemoteCartStore_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"Error: Insufficient stock"}`, "Error: Insufficient stock"},
		{"server error", http.StatusInternalServerError, `{"success":false,"message":"boom"}`, "boom"},
		{"forbidden html", http.StatusForbidden, `<html>denied</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := store.Apply(context.Background(), Mutation{Kind: MutationAdd, ProductID: 1, Quantity: decimal.NewFromInt(1)})
			var rejected *RejectedError
			require.True(t, errors.As(err, &rejected), "got %v", err)
			assert.Equal(t, tt.status, rejected.Status)
			assert.Equal(t, tt.message, rejected.Message)
		})
	}
}

func TestRemoteCartStore_MalformedBody(t *testing.T) {
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":tru`))
	})

	_, err := store.Load(context.Background())
	require.Error(t, err)
	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected))
}

func TestRemoteCartStore_ClearRejected(t *testing.T) {
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := store.Apply(context.Background(), Mutation{Kind: MutationClear})
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusForbidden, rejected.Status)
}

func TestRemoteCartStore_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	store, err := NewRemoteCartStore(RemoteCartOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestRemoteCartStore_ClearSucceedsWhenReloadFails(t *testing.T) {
	var paths []string
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/cart/clear" {
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	items, err := store.Apply(context.Background(), Mutation{Kind: MutationClear})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, []string{"POST /cart/clear", "GET /cart/data"}, paths)
}

func TestRemoteCartStore_BindSessionReplacesCredentials(t *testing.T) {
	var auth, csrf []string
	store, _ := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		csrf = append(csrf, r.Header.Get("X-CSRF-TOKEN"))
		w.Write([]byte(cartJSON))
	})
	ctx := context.Background()
	add := Mutation{Kind: MutationAdd, ProductID: 1, Quantity: decimal.NewFromInt(1)}

	_, err := store.Apply(ctx, add)
	require.NoError(t, err)

	store.BindSession(models.Session{ID: "sid", Token: "tok-new", CSRFToken: "csrf-new"})
	_, err = store.Apply(ctx, add)
	require.NoError(t, err)

	store.BindSession(models.Session{ID: "sid"})
	_, err = store.Apply(ctx, add)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer abc", "Bearer tok-new", ""}, auth)
	assert.Equal(t, []string{"csrf-1", "csrf-new", ""}, csrf)
}
