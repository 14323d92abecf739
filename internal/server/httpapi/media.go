package httpapi

import "net/http"

type mediaUploadURLResponse struct {
	StorageKey string `json:"storageKey"`
	URL        string `json:"url"`
}

func (s *Server) handleMediaUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.storage.BeginMediaUpload(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaUploadURLResponse{StorageKey: key, URL: url})
}

type addMediaRequest struct {
	StorageKey string `json:"storageKey"`
	PostID     string `json:"postId"`
}

func (s *Server) handleAddMedia(w http.ResponseWriter, r *http.Request) {
	var req addMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := s.storage.AddMedia(r.Context(), userIDFromContext(r.Context()), req.PostID, req.StorageKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	views, err := s.storage.ListMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
