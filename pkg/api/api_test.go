package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"newsdesk/pkg/auth"
	"newsdesk/pkg/comments"
	"newsdesk/pkg/moderation"
	"newsdesk/pkg/storage"
	"newsdesk/pkg/storage/memdb"
)

func testResolver() *auth.Resolver {
	return &auth.Resolver{AdminID: "admin-123", ModeratorID: "mod-456"}
}

func newTestAPI(db storage.Storage) (*API, *auth.Sessions) {
	sessions := auth.NewSessions([]byte("test-session-key"), testResolver())
	api := New(Options{
		ServiceName: "newsdesk-test",
		DB:          db,
		Sessions:    sessions,
		FrontendURL: "http://localhost:5173",
	})
	return api, sessions
}

// loginAs establishes a session for claims and returns the cookies a
// browser would send on the next request.
func loginAs(t *testing.T, sessions *auth.Sessions, claims auth.Claims) []*http.Cookie {
	t.Helper()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
	if err := sessions.Establish(rr, req, claims); err != nil {
		t.Fatalf("failed to establish test session: %v", err)
	}

	return rr.Result().Cookies()
}

func doJSON(t *testing.T, api *API, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	api.Router().ServeHTTP(rr, req)

	return rr
}

func TestAPI_createCommentHandler(t *testing.T) {
	api, _ := newTestAPI(memdb.New())

	rr := doJSON(t, api, http.MethodPost, "/api/comments", map[string]string{
		"articleId": "123",
		"content":   "I love puppies!",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("want status code %v, got status code %v", http.StatusCreated, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want Content-Type application/json, got %q", ct)
	}

	var got comments.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if got.ArticleID != "123" {
		t.Errorf("want articleId %q, got %q", "123", got.ArticleID)
	}
	if got.Author != comments.AnonymousAuthor {
		t.Errorf("want author %q, got %q", comments.AnonymousAuthor, got.Author)
	}
	if got.Content != "I love puppies!" {
		t.Errorf("want content %q, got %q", "I love puppies!", got.Content)
	}
	if got.Removed {
		t.Error("want removed false")
	}
	if got.RemovedBy != "" {
		t.Errorf("want empty removedBy, got %q", got.RemovedBy)
	}
	if got.ID == "" {
		t.Error("want a string id")
	}

	// parentId must be rendered as an explicit null, not omitted.
	if !strings.Contains(rr.Body.String(), `"parentId":null`) {
		t.Errorf("want explicit null parentId in body: %s", rr.Body.String())
	}
}

func TestAPI_createCommentHandlerAuthored(t *testing.T) {
	api, sessions := newTestAPI(memdb.New())
	cookies := loginAs(t, sessions, auth.Claims{Username: "carol", UserID: "u1"})

	rr := doJSON(t, api, http.MethodPost, "/api/comments", map[string]string{
		"articleId": "123",
		"content":   "signed comment",
	}, cookies)

	if rr.Code != http.StatusCreated {
		t.Fatalf("want status code %v, got status code %v", http.StatusCreated, rr.Code)
	}

	var got comments.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got.Author != "carol" {
		t.Errorf("want author %q, got %q", "carol", got.Author)
	}
}

func TestAPI_createCommentHandlerValidation(t *testing.T) {
	api, _ := newTestAPI(memdb.New())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing content", map[string]string{"articleId": "123"}},
		{"missing articleId", map[string]string{"content": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, api, http.MethodPost, "/api/comments", tt.body, nil)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
			}
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader("{nope"))
		rr := httptest.NewRecorder()
		api.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
		}
	})
}

func TestAPI_createCommentHandlerMalformedParent(t *testing.T) {
	api, _ := newTestAPI(memdb.New())

	rr := doJSON(t, api, http.MethodPost, "/api/comments", map[string]string{
		"articleId": "123",
		"content":   "reply",
		"parentId":  "definitely-not-hex",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("want status code %v, got status code %v", http.StatusCreated, rr.Code)
	}

	var got comments.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("want nil parentId for malformed reference, got %v", *got.ParentID)
	}
}

func TestAPI_listCommentsHandler(t *testing.T) {
	db := memdb.New()
	api, _ := newTestAPI(db)

	for _, c := range []storage.Comment{
		{ArticleID: "a1", Author: "x", Content: "oldest", Timestamp: 1},
		{ArticleID: "a1", Author: "x", Content: "newest", Timestamp: 3},
		{ArticleID: "a2", Author: "x", Content: "middle", Timestamp: 2},
	} {
		if _, err := db.AddComment(context.Background(), c); err != nil {
			t.Fatalf("failed to seed comment: %v", err)
		}
	}

	rr := doJSON(t, api, http.MethodGet, "/api/comments", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}

	var got []comments.Comment
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 comments, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Errorf("comments out of order: %v before %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestAPI_commentHandler(t *testing.T) {
	db := memdb.New()
	api, _ := newTestAPI(db)

	id, err := db.AddComment(context.Background(), storage.Comment{ArticleID: "a1", Author: "x", Content: "hi", Timestamp: 1})
	if err != nil {
		t.Fatalf("failed to seed comment: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodGet, "/api/comments/"+id.Hex(), nil, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("want status code %v, got status code %v", http.StatusOK, rr.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodGet, "/api/comments/zzz", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodGet, "/api/comments/"+primitive.NewObjectID().Hex(), nil, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("want status code %v, got status code %v", http.StatusNotFound, rr.Code)
		}
	})
}

func TestAPI_moderateCommentHandler(t *testing.T) {
	db := memdb.New()
	api, sessions := newTestAPI(db)

	id, err := db.AddComment(context.Background(), storage.Comment{ArticleID: "a1", Author: "carol", Content: "rude", Timestamp: 1})
	if err != nil {
		t.Fatalf("failed to seed comment: %v", err)
	}
	path := "/api/comments/" + id.Hex() + "/moderate"

	t.Run("no session", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, path, map[string]string{"action": "delete_full"}, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("want status code %v, got status code %v", http.StatusUnauthorized, rr.Code)
		}
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		cookies := loginAs(t, sessions, auth.Claims{Username: "randomperson", UserID: "u9"})
		rr := doJSON(t, api, http.MethodPut, path, map[string]string{"action": "delete_full"}, cookies)
		if rr.Code != http.StatusForbidden {
			t.Errorf("want status code %v, got status code %v", http.StatusForbidden, rr.Code)
		}

		c, err := db.Comment(context.Background(), id)
		if err != nil {
			t.Fatalf("failed to re-read comment: %v", err)
		}
		if c.Removed {
			t.Error("comment mutated by forbidden call")
		}
	})

	modCookies := loginAs(t, sessions, auth.Claims{Username: "dave", UserID: "mod-456"})

	t.Run("missing new_content for redaction", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, path, map[string]string{"action": "redact_partial"}, modCookies)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, path, map[string]string{"action": "vaporize"}, modCookies)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("moderator deletes", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, path, map[string]string{"action": "delete_full"}, modCookies)
		if rr.Code != http.StatusOK {
			t.Fatalf("want status code %v, got status code %v: %s", http.StatusOK, rr.Code, rr.Body.String())
		}

		var got comments.Comment
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if got.Content != moderation.RemovedNotice {
			t.Errorf("want content %q, got %q", moderation.RemovedNotice, got.Content)
		}
		if !got.Removed {
			t.Error("want removed true")
		}
		if got.RemovedBy != "dave" {
			t.Errorf("want removedBy %q, got %q", "dave", got.RemovedBy)
		}
	})

	t.Run("admin redacts after deletion", func(t *testing.T) {
		adminCookies := loginAs(t, sessions, auth.Claims{Username: "carol", UserID: "admin-123"})
		rr := doJSON(t, api, http.MethodPut, path, map[string]any{
			"action":      "redact_partial",
			"new_content": "████",
		}, adminCookies)
		if rr.Code != http.StatusOK {
			t.Fatalf("want status code %v, got status code %v: %s", http.StatusOK, rr.Code, rr.Body.String())
		}

		var got comments.Comment
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if got.Content != "████" {
			t.Errorf("want content %q, got %q", "████", got.Content)
		}
		if !got.Removed {
			t.Error("want removed true")
		}
		if got.RemovedBy != "carol" {
			t.Errorf("want removedBy %q, got %q", "carol", got.RemovedBy)
		}
	})

	t.Run("unknown comment", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, "/api/comments/"+primitive.NewObjectID().Hex()+"/moderate",
			map[string]string{"action": "delete_full"}, modCookies)
		if rr.Code != http.StatusNotFound {
			t.Errorf("want status code %v, got status code %v", http.StatusNotFound, rr.Code)
		}
	})

	t.Run("invalid comment id", func(t *testing.T) {
		rr := doJSON(t, api, http.MethodPut, "/api/comments/zzz/moderate",
			map[string]string{"action": "delete_full"}, modCookies)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %v, got status code %v", http.StatusBadRequest, rr.Code)
		}
	})
}

func TestAPI_storeUnavailable(t *testing.T) {
	api, sessions := newTestAPI(nil)
	modCookies := loginAs(t, sessions, auth.Claims{Username: "dave", UserID: "mod-456"})

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		cookies []*http.Cookie
	}{
		{"create", http.MethodPost, "/api/comments", map[string]string{"articleId": "a", "content": "c"}, nil},
		{"list", http.MethodGet, "/api/comments", nil, nil},
		{"get", http.MethodGet, "/api/comments/" + primitive.NewObjectID().Hex(), nil, nil},
		{"moderate", http.MethodPut, "/api/comments/" + primitive.NewObjectID().Hex() + "/moderate",
			map[string]string{"action": "delete_full"}, modCookies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, api, tt.method, tt.path, tt.body, tt.cookies)
			if rr.Code != http.StatusServiceUnavailable {
				t.Errorf("want status code %v, got status code %v", http.StatusServiceUnavailable, rr.Code)
			}
		})
	}
}
