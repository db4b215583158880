package kanban

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestListCards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/lists/lst-fail/cards" && r.Method == "GET" {
			if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("token") != "t" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode([]Card{
				{ID: "c1", Name: "FAILED: QA - (LG-T002) [chromium] - test_login"},
				{ID: "c2", Name: "FAILED: QA - (HM-T001) [firefox] - test_home"},
			})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(server.URL, "k", "t", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}

	cards, err := client.ListCards(context.Background(), "lst-fail")
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "c1" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}

func TestCreateCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cards" && r.Method == "POST" {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if got := r.PostForm.Get("idList"); got != "lst-fail" {
				t.Errorf("idList = %q, want 'lst-fail'", got)
			}
			if got := r.PostForm.Get("name"); got == "" {
				t.Error("card name missing")
			}
			json.NewEncoder(w).Encode(Card{ID: "c-new", IDShort: 42})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, "k", "t", WithHTTPClient(server.Client()))
	card, err := client.CreateCard(context.Background(), "lst-fail", "FAILED: QA - (LG-T002)", "body")
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if card.ID != "c-new" || card.IDShort != 42 {
		t.Errorf("unexpected card: %+v", card)
	}
}

func TestCommentCard_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, "k", "t", WithHTTPClient(server.Client()))
	err := client.CommentCard(context.Background(), "gone", "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound, got: %v", err)
	}
}

func TestMoveCard(t *testing.T) {
	var gotList string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cards/c1" && r.Method == "PUT" {
			r.ParseForm()
			gotList = r.PostForm.Get("idList")
			w.Write([]byte("{}"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, "k", "t", WithHTTPClient(server.Client()))
	if err := client.MoveCard(context.Background(), "c1", "lst-done"); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if gotList != "lst-done" {
		t.Errorf("idList = %q, want 'lst-done'", gotList)
	}
}

func TestAttachFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cards/c1/attachments" && r.Method == "POST" {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("form file: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.Close()
			gotFile = header.Filename
			w.Write([]byte("{}"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, "k", "t", WithHTTPClient(server.Client()))
	if err := client.AttachFile(context.Background(), "c1", path); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if gotFile != "shot.png" {
		t.Errorf("uploaded filename = %q, want 'shot.png'", gotFile)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("", "k", "t"); err == nil {
		t.Error("expected error for empty baseURL")
	}
}
