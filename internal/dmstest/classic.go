package dmstest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ClassicFixture is the default Classic tree:
//
//	finance "Finance" (site)
//	  doclib-finance (documentLibrary container), surf-finance (other container)
//	    inv "Invoices"
//	      inv-2024 "2024"
//	    rep "Reports" (read-only)
//	    readme.txt (file)
//	legacy "Legacy" (site without a containers endpoint)
//	  arch "Archive"
func ClassicFixture() []Node {
	return []Node{
		{ID: "finance", Name: "Finance", Kind: "site", CanCreate: true},
		{ID: "doclib-finance", Name: "documentLibrary", Kind: "container", Parent: "finance", CanCreate: true},
		{ID: "surf-finance", Name: "surf-config", Kind: "container", Parent: "finance"},
		{ID: "inv", Name: "Invoices", Kind: "folder", Parent: "doclib-finance", CanCreate: true},
		{ID: "inv-2024", Name: "2024", Kind: "folder", Parent: "inv", CanCreate: true},
		{ID: "rep", Name: "Reports", Kind: "folder", Parent: "doclib-finance"},
		{ID: "readme", Name: "readme.txt", Kind: "file", Parent: "doclib-finance"},
		{ID: "legacy", Name: "Legacy", Kind: "site", CanCreate: true},
		{ID: "arch", Name: "Archive", Kind: "folder", Parent: "legacy", CanCreate: true},
	}
}

func (s *Server) classicRoutes(r chi.Router) {
	r.Get("/sites", s.classicSites)
	r.Get("/sites/{id}/containers", s.classicContainers)
	r.Get("/nodes/{id}", s.classicNode)
	r.Get("/nodes/{id}/children", s.classicChildren)
	r.Post("/nodes/{id}/children", s.classicCreate)
}

func classicList(entries []map[string]interface{}) map[string]interface{} {
	wrapped := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		wrapped[i] = map[string]interface{}{"entry": e}
	}
	return map[string]interface{}{
		"list": map[string]interface{}{
			"pagination": map[string]interface{}{"count": len(entries), "hasMoreItems": false},
			"entries":    wrapped,
		},
	}
}

func classicError(w http.ResponseWriter, status int, summary string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"statusCode": status, "briefSummary": summary},
	})
}

func (s *Server) classicSites(w http.ResponseWriter, r *http.Request) {
	var entries []map[string]interface{}
	for _, n := range s.rootNodes() {
		if n.Kind != "site" {
			continue
		}
		entries = append(entries, map[string]interface{}{"id": n.ID, "title": n.Name, "visibility": "PUBLIC"})
	}
	writeJSON(w, http.StatusOK, classicList(entries))
}

func (s *Server) classicContainers(w http.ResponseWriter, r *http.Request) {
	site, kids, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok || site.Kind != "site" {
		classicError(w, http.StatusNotFound, "Site not found")
		return
	}

	var entries []map[string]interface{}
	for _, c := range kids {
		if c.Kind == "container" {
			entries = append(entries, map[string]interface{}{"id": c.ID, "folderId": c.Name})
		}
	}
	if len(entries) == 0 {
		classicError(w, http.StatusNotFound, "No containers")
		return
	}
	writeJSON(w, http.StatusOK, classicList(entries))
}

func (s *Server) classicNode(w http.ResponseWriter, r *http.Request) {
	n, _, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		classicError(w, http.StatusNotFound, "Node not found")
		return
	}
	ops := []string{"update"}
	if n.CanCreate {
		ops = append(ops, "create")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry": map[string]interface{}{"id": n.ID, "name": n.Name, "isFolder": n.Kind != "file", "allowableOperations": ops},
	})
}

func (s *Server) classicChildren(w http.ResponseWriter, r *http.Request) {
	_, kids, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		classicError(w, http.StatusNotFound, "Node not found")
		return
	}

	entries := make([]map[string]interface{}, 0, len(kids))
	for _, c := range kids {
		if c.Kind == "container" {
			continue
		}
		isFolder := c.Kind != "file"
		nodeType := "cm:content"
		if isFolder {
			nodeType = "cm:folder"
		}
		entries = append(entries, map[string]interface{}{
			"id": c.ID, "name": c.Name, "isFolder": isFolder, "isFile": !isFolder, "nodeType": nodeType,
		})
	}
	writeJSON(w, http.StatusOK, classicList(entries))
}

func (s *Server) classicCreate(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")
	if _, _, ok := s.lookup(parentID); !ok {
		classicError(w, http.StatusNotFound, "Parent node not found")
		return
	}

	if isMultipart(r) {
		s.classicUpload(w, r, parentID)
		return
	}

	var req struct {
		Name     string `json:"name"`
		NodeType string `json:"nodeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		classicError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	if s.childNamed(parentID, req.Name) != nil {
		s.mu.Unlock()
		classicError(w, http.StatusConflict, "Duplicate child name not allowed: "+req.Name)
		return
	}
	n := s.createChild(parentID, req.Name, "folder")
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entry": map[string]interface{}{"id": n.ID, "name": n.Name, "isFolder": true, "nodeType": req.NodeType},
	})
}

func (s *Server) classicUpload(w http.ResponseWriter, r *http.Request, parentID string) {
	done := s.trackUpload()
	defer done()

	u, err := readUpload(r, "filedata")
	if err != nil {
		classicError(w, http.StatusBadRequest, "Could not read filedata: "+err.Error())
		return
	}
	u.ParentID = parentID
	s.recordUpload(u)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entry": map[string]interface{}{"name": u.Name, "isFile": true},
	})
}
