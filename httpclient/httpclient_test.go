package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infraglue.org/failure"
)

func TestGetJSON(t *testing.T) {
	ht := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprintln(w, `{"clusters":["local"]}`)
	}))
	defer ht.Close()

	var v struct{ Clusters []string }
	require.NoError(t, GetJSON(context.Background(), New(Options{}), ht.URL+"/v2/kafka", &v))
	assert.Equal(t, []string{"local"}, v.Clusters)
}

func TestGetJSONStatusKinds(t *testing.T) {
	ht := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "nope", http.StatusNotFound)
		case "/broken":
			http.Error(w, "down", http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, "not json")
		}
	}))
	defer ht.Close()
	c := New(Options{})
	var v map[string]interface{}

	err := GetJSON(context.Background(), c, ht.URL+"/missing", &v)
	assert.True(t, failure.Is(err, failure.NotFound))

	err = GetJSON(context.Background(), c, ht.URL+"/broken", &v)
	assert.True(t, failure.Is(err, failure.Transport))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)

	err = GetJSON(context.Background(), c, ht.URL+"/garbage", &v)
	assert.True(t, failure.Is(err, failure.Transport))
}

func TestConnectionRefused(t *testing.T) {
	ht := httptest.NewServer(http.NotFoundHandler())
	url := ht.URL
	ht.Close()
	var v interface{}
	err := GetJSON(context.Background(), New(Options{}), url, &v)
	assert.True(t, failure.Is(err, failure.Transport))
}
