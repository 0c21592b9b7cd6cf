package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, chunks []string, seen *generateRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[]}`)
		case "/api/generate":
			if seen != nil {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
			}

			for i, c := range chunks {
				b, _ := json.Marshal(generateChunk{Response: c, Done: i == len(chunks)-1})
				fmt.Fprintf(w, "%s\n", b)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestStreamAccumulatesChunks(t *testing.T) {
	var req generateRequest

	srv := streamServer(t, []string{"Breathe ", "in, ", "breathe out."}, &req)
	defer srv.Close()

	c := NewClient(srv.URL+"/", "llama3", WithModelOptions(map[string]any{"temperature": 0.7}))

	var got []string

	text, err := c.Stream(context.Background(), "sys", "calm me", func(s string) { got = append(got, s) })
	require.NoError(t, err)

	assert.Equal(t, "Breathe in, breathe out.", text)
	assert.Equal(t, []string{"Breathe ", "in, ", "breathe out."}, got)
	assert.True(t, req.Stream)
	assert.Equal(t, "llama3", req.Model)
	assert.Equal(t, "sys", req.System)
	assert.Equal(t, "calm me", req.Prompt)
	assert.InDelta(t, 0.7, req.Options["temperature"], 1e-12)
}

func TestStreamStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"response":"one","done":false}`)
		fmt.Fprintln(w)
		fmt.Fprintln(w, `{"response":" two","done":true}`)
		fmt.Fprintln(w, `not json`)
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, "").Generate(context.Background(), "", "p")
	require.NoError(t, err)
	assert.Equal(t, "one two", text)
}

func TestStreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			want: ErrStatus,
		},
		{
			name: "empty",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprintln(w, `{"response":"  ","done":true}`)
			},
			want: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, "").Stream(context.Background(), "", "p", nil)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStreamReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Stream(context.Background(), "", "p", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestUnavailable(t *testing.T) {
	srv := streamServer(t, nil, nil)
	url := srv.URL
	srv.Close()

	c := NewClient(url, "")

	_, err := c.Generate(context.Background(), "", "p")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, c.Available(context.Background()))
}

func TestAvailable(t *testing.T) {
	srv := streamServer(t, nil, nil)
	defer srv.Close()

	assert.True(t, NewClient(srv.URL, "").Available(context.Background()))
}

func TestDefaults(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestReadStreamLongLine(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	b, _ := json.Marshal(generateChunk{Response: long, Done: true})

	text, err := readStream(strings.NewReader(string(b)+"\n"), nil)
	require.NoError(t, err)
	assert.Len(t, text, len(long))
}
