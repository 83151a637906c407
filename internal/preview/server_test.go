package preview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/markdown"
)

var fixedNow = time.Date(2025, 10, 20, 19, 58, 28, 0, time.UTC)

type templateSource struct {
	mutex sync.Mutex
	tpl   string
	err   error
}

func (s *templateSource) get() (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.tpl, s.err
}

func (s *templateSource) set(tpl string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.tpl, s.err = tpl, err
}

func newTestServer(t *testing.T, src *templateSource) (*Server, *httptest.Server) {
	t.Helper()
	renderer := NewRenderer(
		markdown.NewFormatter(nil),
		frontmatter.NewComposer(frontmatter.Settings{}, nil),
		func() time.Time { return fixedNow },
	)
	s := NewServer(Config{Host: "127.0.0.1"}, src.get, renderer, nil)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPageRendersDefaultTemplate(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	assert.Contains(t, body, "<h2>Example Domain</h2>")
	assert.Contains(t, body, `<a href="https://example.com/">https://example.com/</a>`)
	assert.Contains(t, body, `<pre class="frontmatter">---`)
	assert.Contains(t, body, `window_title: "Research"`)
	assert.NotContains(t, body, "The template failed to render")
}

func TestPageShowsFallbackAndErrors(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{tpl: "{{#tabs}}\n- {{title}}"})

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "The template failed to render")
	assert.Contains(t, body, `<ul class="errors"><li>Section "tabs" was not closed (line 1, column 1).</li>`)
	assert.Contains(t, body, "<h2>Example Domain</h2>")
}

func TestPageOmitsRawHTML(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{tpl: "<script>alert(1)</script>\n\n{{#tabs}}- {{title}}\n{{/tabs}}"})

	_, body := get(t, ts.URL+"/")
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, body, "<li>Example Domain</li>")
}

func TestMarkdownEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{tpl: "{{#tabs}}{{position}}. {{title}}\n{{/tabs}}"})

	resp, body := get(t, ts.URL+"/markdown")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Equal(t, "1. Example Domain\n2. The Go Programming Language\n3. Search results\n", body)
}

func TestPreviewEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{tpl: "{{{title}}}"})

	resp, body := get(t, ts.URL+"/api/preview")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Markdown    string `json:"markdown"`
		Fallback    bool   `json:"fallback"`
		Diagnostics struct {
			Errors   []string `json:"errors"`
			Warnings []string `json:"warnings"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	assert.False(t, page.Fallback)
	assert.Empty(t, page.Diagnostics.Errors)
	assert.Len(t, page.Diagnostics.Warnings, 1)
}

func TestSourceErrors(t *testing.T) {
	src := &templateSource{err: errors.New("template file not found")}
	_, ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "template file not found")

	resp, _ = get(t, ts.URL+"/api/preview")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{})
	resp, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","clients":0}`, body)
}

func TestWebSocketPushesReload(t *testing.T) {
	src := &templateSource{}
	s, ts := newTestServer(t, src)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.Notify(ctx)
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"reload"}`, string(data))

	src.set("", errors.New("read failed"))
	s.Notify(ctx)
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"read failed"}`, string(data))

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, &templateSource{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", &websocket.DialOptions{
		HTTPHeader: header,
	})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, &templateSource{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSplitFrontmatter(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		fm   string
		body string
	}{
		{"block and body", "---\na: 1\nb: 2\n---\n# Title\n", "a: 1\nb: 2", "# Title\n"},
		{"block only", "---\na: 1\n---", "a: 1", ""},
		{"no block", "# Title\n", "", "# Title\n"},
		{"unterminated", "---\na: 1\n", "", "---\na: 1\n"},
		{"dashes inside a line", "---\na: 1\n---x\n", "", "---\na: 1\n---x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := SplitFrontmatter(tt.doc)
			assert.Equal(t, tt.fm, fm)
			assert.Equal(t, tt.body, body)
		})
	}
}
