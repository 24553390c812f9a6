package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sprite-ai/hunkr/internal/aggregate"
	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/review"
	"github.com/sprite-ai/hunkr/internal/storage"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Parse / load ---

type parseRequest struct {
	Diff string `json:"diff"`
}

type parseResponse struct {
	Files []fileJSON    `json:"files"`
	Hunks []hunkJSON    `json:"hunks"`
	Stats diffStatsJSON `json:"stats"`
}

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

type fileJSON struct {
	Path         string             `json:"path"`
	Status       model.ChangeStatus `json:"status,omitempty"`
	RenamedFrom  string             `json:"renamed_from,omitempty"`
	IsBinary     bool               `json:"is_binary,omitempty"`
	AddedLines   int                `json:"added_lines"`
	DeletedLines int                `json:"deleted_lines"`
	Hunks        int                `json:"hunks"`
}

type hunkJSON struct {
	ID        string   `json:"id"`
	File      string   `json:"file"`
	Header    string   `json:"header"`
	Status    string   `json:"status"`
	TrustedBy string   `json:"trusted_by,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Added     int      `json:"added"`
	Removed   int      `json:"removed"`
	Identical []string `json:"identical,omitempty"`
	MovePair  string   `json:"move_pair,omitempty"`
}

func parsed(ds *diff.DiffSet) parseResponse {
	nFiles, added, deleted := ds.Stats()
	resp := parseResponse{Stats: diffStatsJSON{Files: nFiles, Added: added, Deleted: deleted}}
	for _, f := range ds.Files {
		e := f.Entry()
		resp.Files = append(resp.Files, fileJSON{
			Path:         e.Path,
			Status:       e.Status,
			RenamedFrom:  e.RenamedFrom,
			IsBinary:     f.IsBinary,
			AddedLines:   f.AddedLines,
			DeletedLines: f.DeletedLines,
			Hunks:        len(f.Hunks),
		})
	}
	for _, h := range ds.Hunks() {
		a, d := h.Stats()
		resp.Hunks = append(resp.Hunks, hunkJSON{
			ID: h.ID, File: h.FilePath, Header: h.Header(),
			Status: model.ReviewPending.String(), Added: a, Removed: d,
		})
	}
	return resp
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Diff == "" {
		s.writeError(w, http.StatusBadRequest, "diff is required")
		return
	}
	ds, err := diff.Parse(req.Diff)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, parsed(ds))
}

type loadRequest struct {
	Comparison string   `json:"comparison"`
	Diff       string   `json:"diff"`
	Staged     []string `json:"staged,omitempty"`
}

// load opens a review from a raw diff.
func (s *Server) load(ctx context.Context, req loadRequest) (*diff.DiffSet, error) {
	c, err := model.ParseComparison(req.Comparison)
	if err != nil {
		return nil, err
	}
	ds, err := diff.Parse(req.Diff)
	if err != nil {
		return nil, err
	}
	if err := s.Open(ctx, c, ds, req.Staged); err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if _, err := s.load(r.Context(), req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

// --- State ---

type stateResponse struct {
	Comparison        model.Comparison     `json:"comparison"`
	Version           int                  `json:"version"`
	TrustList         []string             `json:"trust_list"`
	AutoApproveStaged bool                 `json:"auto_approve_staged"`
	Progress          aggregate.Progress   `json:"progress"`
	Ops               map[review.Op]opJSON `json:"ops"`
	Guide             *model.Guide         `json:"guide,omitempty"`
	Narrative         string               `json:"narrative,omitempty"`
	Annotations       []model.Annotation   `json:"annotations"`
}

type opJSON struct {
	review.OpState
	Cached  bool   `json:"cached"`
	Verdict string `json:"verdict,omitempty"`
}

func (s *Server) snapshot() stateResponse {
	st := s.svc.State()
	resp := stateResponse{
		Progress: s.svc.Progress(),
		Ops:      make(map[review.Op]opJSON),
	}
	if st == nil {
		return resp
	}
	resp.Comparison = st.Comparison
	resp.Version = st.Version
	resp.TrustList = st.TrustList
	resp.AutoApproveStaged = st.AutoApproveStaged
	resp.Guide = st.Guide
	resp.Annotations = st.Annotations
	if st.Narrative != nil {
		resp.Narrative = st.Narrative.Text
	}
	for _, op := range []review.Op{review.OpClassify, review.OpGroup, review.OpNarrate} {
		o := opJSON{OpState: s.svc.OpState(op)}
		if v, ok := s.svc.Verdict(op); ok {
			o.Cached = true
			o.Verdict = v.String()
		}
		resp.Ops[op] = o
	}
	return resp
}

func (s *Server) requireReview(w http.ResponseWriter) bool {
	if _, ok := s.svc.Comparison(); !ok {
		s.writeError(w, http.StatusConflict, review.ErrNoReview.Error())
		return false
	}
	return true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.requireReview(w) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) hunks() []hunkJSON {
	st := s.svc.State()
	var out []hunkJSON
	for _, h := range s.svc.Hunks() {
		a, d := h.Stats()
		hj := hunkJSON{
			ID:        h.ID,
			File:      h.FilePath,
			Header:    h.Header(),
			Status:    s.svc.Status(h.ID).String(),
			Labels:    st.Hunk(h.ID).Label,
			Added:     a,
			Removed:   d,
			Identical: s.svc.IdenticalTo(h.ID),
		}
		if reason, ok := s.svc.TrustReason(h.ID); ok {
			hj.TrustedBy = reason
		}
		if p, ok := s.svc.MovePair(h.ID); ok {
			hj.MovePair = p.ID
		}
		out = append(out, hj)
	}
	return out
}

func (s *Server) handleHunks(w http.ResponseWriter, r *http.Request) {
	if !s.requireReview(w) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.hunks())
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if !s.requireReview(w) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.svc.FileStatus())
}

type nodeJSON struct {
	Name        string               `json:"name"`
	Path        string               `json:"path"`
	IsDir       bool                 `json:"is_dir,omitempty"`
	Status      model.ChangeStatus   `json:"status,omitempty"`
	RenamedFrom string               `json:"renamed_from,omitempty"`
	Counts      model.FileHunkStatus `json:"counts"`
	Children    []nodeJSON           `json:"children,omitempty"`
}

func toNodeJSON(n *aggregate.Node) nodeJSON {
	out := nodeJSON{
		Name:        n.Name,
		Path:        n.Path,
		IsDir:       n.IsDir,
		Status:      n.Status,
		RenamedFrom: n.RenamedFrom,
		Counts:      n.Counts,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toNodeJSON(c))
	}
	return out
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if !s.requireReview(w) {
		return
	}
	s.writeJSON(w, http.StatusOK, toNodeJSON(s.svc.Tree()))
}

// handlePatch returns the approved and trusted hunks as a unified diff.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	ds := s.diffSet()
	if ds == nil {
		s.writeError(w, http.StatusConflict, review.ErrNoReview.Error())
		return
	}
	w.Header().Set("Content-Type", "text/x-diff")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.acceptedPatch(ds))
}

func (s *Server) acceptedPatch(ds *diff.DiffSet) string {
	return diff.Patch(ds.Files, func(h model.Hunk) bool {
		st := s.svc.Status(h.ID)
		return st == model.ReviewApproved || st == model.ReviewTrusted
	})
}

// --- Actions ---

const (
	actApprove          = "approve"
	actReject           = "reject"
	actSave             = "save"
	actClear            = "clear"
	actApproveFile      = "approve_file"
	actRejectFile       = "reject_file"
	actApproveIdentical = "approve_identical"
	actApproveGroup     = "approve_group"
	actApproveMovePair  = "approve_move_pair"
	actRejectAll        = "reject_all"
	actReset            = "reset"
	actAutoApprove      = "auto_approve_staged"
	actAnnotate         = "annotate"
	actUnannotate       = "remove_annotation"
)

var errBadAction = errors.New("bad action")

type actionRequest struct {
	Action  string   `json:"action"`
	IDs     []string `json:"ids,omitempty"`
	File    string   `json:"file,omitempty"`
	Group   int      `json:"group,omitempty"`
	Enabled bool     `json:"enabled,omitempty"`
	Line    int      `json:"line,omitempty"`
	Side    string   `json:"side,omitempty"`
	Content string   `json:"content,omitempty"`
}

// apply dispatches one action to the review service.
func (s *Server) apply(ctx context.Context, req actionRequest) error {
	var err error
	switch req.Action {
	case actApprove:
		_, err = s.svc.Approve(ctx, req.IDs...)
	case actReject:
		_, err = s.svc.Reject(ctx, req.IDs...)
	case actSave:
		_, err = s.svc.SaveForLater(ctx, req.IDs...)
	case actClear:
		_, err = s.svc.Clear(ctx, req.IDs...)
	case actApproveFile:
		_, err = s.svc.ApproveFile(ctx, req.File)
	case actRejectFile:
		_, err = s.svc.RejectFile(ctx, req.File)
	case actApproveIdentical, actApproveMovePair:
		if len(req.IDs) != 1 {
			return fmt.Errorf("%w: %s takes exactly one id", errBadAction, req.Action)
		}
		if req.Action == actApproveIdentical {
			_, err = s.svc.ApproveIdentical(ctx, req.IDs[0])
		} else {
			_, err = s.svc.ApproveMovePair(ctx, req.IDs[0])
		}
	case actApproveGroup:
		_, err = s.svc.ApproveGroup(ctx, req.Group)
	case actRejectAll:
		_, err = s.svc.RejectAll(ctx)
	case actReset:
		_, err = s.svc.Reset(ctx)
	case actAutoApprove:
		_, err = s.svc.SetAutoApproveStaged(ctx, req.Enabled)
	case actAnnotate:
		_, err = s.svc.Annotate(ctx, req.File, req.Line, req.Side, req.Content)
	case actUnannotate:
		for _, id := range req.IDs {
			if _, err = s.svc.RemoveAnnotation(ctx, id); err != nil {
				break
			}
		}
	default:
		return fmt.Errorf("%w: unknown action %q", errBadAction, req.Action)
	}
	return err
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := s.apply(r.Context(), req); err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

type trustRequest struct {
	Patterns []string `json:"patterns"`
}

type trustResponse struct {
	TrustList []string       `json:"trust_list"`
	Preview   map[string]int `json:"preview"`
}

// handleTrust adds (POST) or removes (DELETE) trust patterns and previews
// how many hunks each pattern trusts.
func (s *Server) handleTrust(w http.ResponseWriter, r *http.Request) {
	var req trustRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	var (
		st  *model.ReviewState
		err error
	)
	if r.Method == http.MethodDelete {
		st, err = s.svc.RemoveTrust(r.Context(), req.Patterns...)
	} else {
		st, err = s.svc.AddTrust(r.Context(), req.Patterns...)
	}
	if err != nil {
		s.writeError(w, errorStatus(err), err.Error())
		return
	}
	resp := trustResponse{TrustList: st.TrustList, Preview: make(map[string]int)}
	for _, p := range st.TrustList {
		resp.Preview[p] = s.svc.TrustedHunkCount(p)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// --- Collaborator ---

// handleCollaborator runs classify, group or narrate. ?force=true ignores a
// fresh cached result.
func (s *Server) handleCollaborator(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	var err error
	switch review.Op(r.PathValue("op")) {
	case review.OpClassify:
		_, err = s.svc.Classify(r.Context(), force)
	case review.OpGroup:
		_, err = s.svc.Group(r.Context(), force)
	case review.OpNarrate:
		_, err = s.svc.Narrate(r.Context(), force)
	default:
		s.writeError(w, http.StatusNotFound, "unknown operation "+r.PathValue("op"))
		return
	}
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot())
}

// --- Saved reviews ---

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, []storage.Summary{})
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}
