package dmstest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// AngoraFixture is the default Angora tree:
//
//	10 "Legal" (department, numeric id)
//	  c1 "Contracts" (is_folder)
//	    c1-signed "Signed"
//	  drafts "Drafts" (no markers: implicit folder)
//	  nda.pdf (file, extension marker)
//	  locked "Locked" (can_have_children false)
//	  <item without id>
//	  sub-dept "Compliance" (nested department)
//	hr "HR" (department)
func AngoraFixture() []Node {
	return []Node{
		{ID: "10", Name: "Legal", Kind: "department", NumericID: true, CanCreate: true},
		{ID: "c1", Name: "Contracts", Kind: "folder", Parent: "10", CanCreate: true},
		{ID: "c1-signed", Name: "Signed", Kind: "folder", Parent: "c1", CanCreate: true},
		{ID: "drafts", Name: "Drafts", Kind: "plain", Parent: "10"},
		{ID: "nda", Name: "nda.pdf", Kind: "file", Parent: "10", Extra: map[string]interface{}{"extension": "pdf", "raw_file_name": "NDA final.pdf"}},
		{ID: "locked", Name: "Locked", Kind: "plain", Parent: "10", Extra: map[string]interface{}{"can_have_children": false}},
		{ID: "", Name: "ghost", Kind: "folder", Parent: "10"},
		{ID: "sub-dept", Name: "Compliance", Kind: "department", Parent: "10"},
		{ID: "hr", Name: "HR", Kind: "department", CanCreate: true},
	}
}

func (s *Server) angoraRoutes(r chi.Router) {
	r.Get("/departments", s.angoraDepartments)
	r.Get("/departments/{id}/children", s.angoraChildren)
	r.Get("/folders/{id}/children", s.angoraChildren)
	r.Post("/folders", s.angoraCreate)
	r.Post("/uploads", s.angoraUpload)
}

func angoraOK(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"status": status, "data": data})
}

func angoraError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"status": status, "message": message})
}

func angoraItem(n *Node) map[string]interface{} {
	item := map[string]interface{}{"name": n.Name}
	if n.ID != "" {
		if id, err := strconv.Atoi(n.ID); err == nil && n.NumericID {
			item["id"] = id
		} else {
			item["id"] = n.ID
		}
	}
	switch n.Kind {
	case "department":
		item["is_department"] = true
	case "folder":
		item["is_folder"] = true
	case "file":
		item["file_type"] = "document"
	}
	for k, v := range n.Extra {
		item[k] = v
	}
	return item
}

func (s *Server) angoraDepartments(w http.ResponseWriter, r *http.Request) {
	var data []map[string]interface{}
	for _, n := range s.rootNodes() {
		data = append(data, angoraItem(n))
	}
	angoraOK(w, http.StatusOK, data)
}

func (s *Server) angoraChildren(w http.ResponseWriter, r *http.Request) {
	_, kids, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		angoraError(w, http.StatusNotFound, "Folder not found")
		return
	}
	data := make([]map[string]interface{}, 0, len(kids))
	for _, c := range kids {
		data = append(data, angoraItem(c))
	}
	angoraOK(w, http.StatusOK, data)
}

func (s *Server) angoraCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		angoraError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, _, ok := s.lookup(req.ParentID); !ok {
		angoraError(w, http.StatusNotFound, "Parent folder not found")
		return
	}

	s.mu.Lock()
	if s.childNamed(req.ParentID, req.Name) != nil {
		s.mu.Unlock()
		angoraError(w, http.StatusConflict, "A folder with this name already exists")
		return
	}
	n := s.createChild(req.ParentID, req.Name, "folder")
	s.mu.Unlock()

	angoraOK(w, http.StatusCreated, angoraItem(n))
}

func (s *Server) angoraUpload(w http.ResponseWriter, r *http.Request) {
	done := s.trackUpload()
	defer done()

	parentID := r.Header.Get("x-parent-id")
	if _, _, ok := s.lookup(parentID); !ok {
		angoraError(w, http.StatusNotFound, "Parent folder not found")
		return
	}

	u, err := readUpload(r, "file")
	if err != nil {
		angoraError(w, http.StatusBadRequest, "Could not read file: "+err.Error())
		return
	}
	u.ParentID = parentID
	s.recordUpload(u)

	angoraOK(w, http.StatusOK, map[string]interface{}{"file_id": r.Header.Get("x-file-id"), "name": u.Name})
}
