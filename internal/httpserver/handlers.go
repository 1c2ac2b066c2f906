package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contentBackend/models"
)

type handlers struct {
	Deps
}

type registerRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	IsAdmin  json.RawMessage `json:"isAdmin"` // any value; read by truthiness
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// articleRequest keeps title and content as sent; an absent key stays nil.
type articleRequest struct {
	Title   json.RawMessage `json:"title"`
	Content json.RawMessage `json:"content"`
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if _, err := h.Accounts.Register(r.Context(), req.Username, req.Password, models.Truthy(req.IsAdmin)); err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageBody{Message: "User registered successfully"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	tok, err := h.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: tok})
}

func (h *handlers) protected(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, messageBody{Message: "Protected route accessed successfully"})
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	var (
		payload io.Reader
		name    string
	)
	err := r.ParseMultipartForm(10 << 20)
	switch {
	case err == nil:
		defer r.MultipartForm.RemoveAll()
		file, header, ferr := r.FormFile("image")
		if ferr == nil {
			defer file.Close()
			payload, name = file, header.Filename
		} else if !errors.Is(ferr, http.ErrMissingFile) {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
	case errors.Is(err, http.ErrNotMultipart):
		// No file part at all.
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	url, err := h.Uploads.Store(r.Context(), payload, name)
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, uploadResponse{ImageURL: url})
}

func (h *handlers) listArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Articles.List(r.Context())
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, articles)
}

func (h *handlers) getArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.Articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *handlers) createArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	a, err := h.Articles.Create(r.Context(), req.Title, req.Content)
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *handlers) updateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	a, err := h.Articles.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *handlers) deleteArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.Articles.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
