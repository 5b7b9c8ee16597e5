package imagefetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestEncodeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.jpg":
			w.Header().Set("Content-Type", "image/jpeg; charset=binary")
			w.Write([]byte("jpegdata"))
		case "/untyped":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(pngHeader)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	enc := NewEncoder(time.Second, 2, nil)
	enc.SetHTTPClient(server.Client())
	ctx := context.Background()

	got, err := enc.EncodeURL(ctx, server.URL+"/typed.jpg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,anBlZ2RhdGE=", got)

	got, err = enc.EncodeURL(ctx, server.URL+"/untyped")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", got)

	got, err = enc.EncodeURL(ctx, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", got)

	_, err = enc.EncodeURL(ctx, server.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestEncodeAll(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		if r.URL.Path == "/fail" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	enc := NewEncoder(time.Second, 2, nil)
	enc.SetHTTPClient(server.Client())

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", server.URL, i)
	}

	got, err := enc.EncodeAll(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "data:image/jpeg;base64,LzA=", got[0])
	assert.Equal(t, "data:image/jpeg;base64,LzU=", got[5])
	assert.LessOrEqual(t, peak.Load(), int32(2))

	_, err = enc.EncodeAll(context.Background(), []string{server.URL + "/0", server.URL + "/fail"})
	assert.ErrorIs(t, err, ErrFetch)
}
