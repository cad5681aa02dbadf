package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/omote-irgen/internal/catalog"
	"github.com/nerrad567/omote-irgen/internal/emit"
	"github.com/nerrad567/omote-irgen/internal/generator"
	"github.com/nerrad567/omote-irgen/internal/ir"
	"github.com/nerrad567/omote-irgen/internal/metrics"
	"github.com/nerrad567/omote-irgen/internal/source"
)

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	// Device names the output. Empty falls back to the name the source
	// declares, then to the filename.
	Device string `json:"device"`

	// Filename selects the parser by extension; content is sniffed when
	// it has none.
	Filename string `json:"filename"`

	// Content is the source text.
	Content string `json:"content"`

	// Format is the output format; empty uses the server default.
	Format string `json:"format,omitempty"`

	Strict      bool `json:"strict,omitempty"`
	FailFast    bool `json:"fail_fast,omitempty"`
	NECLSBFirst bool `json:"nec_lsb_first,omitempty"`

	// Save records the run in the catalog.
	Save bool `json:"save,omitempty"`
}

// GeneratedFile is one rendered file.
type GeneratedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// GenerateResponse is the outcome of a generation.
type GenerateResponse struct {
	Device  string                  `json:"device"`
	Format  string                  `json:"format"`
	RunID   string                  `json:"run_id,omitempty"`
	Codes   []CodeResponse          `json:"codes"`
	Skipped []catalog.SkippedRecord `json:"skipped"`
	Files   []GeneratedFile         `json:"files"`
}

// handleGenerate parses a source file, encodes it and renders the
// output files in the response body. Nothing is written to disk.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeBadRequest(w, "content is required")
		return
	}

	format := req.Format
	if format == "" {
		format = s.gen.Format
	}
	switch format {
	case emit.FormatOMOTE, emit.FormatYAML, emit.FormatJSON:
	default:
		writeBadRequest(w, "format must be omote, yaml or json")
		return
	}
	if req.Save && s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "catalog is not configured")
		return
	}

	doc, err := source.Parse([]byte(req.Content), req.Filename)
	if err != nil {
		writeUnprocessable(w, sourceErrorCode(err), err.Error())
		return
	}

	device := req.Device
	if device == "" {
		device = doc.Name
	}
	if device == "" {
		device = source.BaseName(req.Filename)
	}
	if device == "" {
		writeBadRequest(w, "device is required when the source does not name one")
		return
	}

	enc := s.mask
	if req.Strict || s.gen.Strict {
		enc = s.strict
	}
	gen := generator.New(enc, generator.Options{
		Workers:  s.gen.Workers,
		FailFast: req.FailFast || s.gen.FailFast,
		Logger:   s.logger.With("request_id", requestID(r.Context())),
		Observer: s.observer(),
	})

	res, err := gen.Run(r.Context(), device, doc.Records)
	if err != nil {
		var recErr *generator.RecordError
		switch {
		case errors.As(err, &recErr):
			s.observeRun(device, metrics.RunFailed, 0, 0)
			writeUnprocessable(w, ir.ErrorCode(recErr.Err), err.Error())
		case errors.Is(err, generator.ErrNoCommands):
			s.observeRun(device, metrics.RunEmpty, 0, len(res.Skipped))
			writeUnprocessable(w, ErrCodeNoCommands, err.Error())
		default:
			s.logger.Error("generation failed", "device", device, "error", err)
			writeInternalError(w, "generation failed")
		}
		return
	}

	opts := emit.Options{NECLSBFirst: req.NECLSBFirst || s.gen.NECLSBFirst}
	files, err := emit.Render(format, res, opts)
	if err != nil {
		s.logger.Error("rendering output failed", "device", device, "format", format, "error", err)
		writeInternalError(w, "rendering output failed")
		return
	}

	entry := catalog.FromResult(res, req.Filename, format)
	resp := GenerateResponse{
		Device:  res.Device,
		Format:  format,
		Codes:   make([]CodeResponse, 0, len(res.Entries)),
		Skipped: entry.Skipped,
		Files:   make([]GeneratedFile, 0, len(files)),
	}
	for _, e := range res.Entries {
		resp.Codes = append(resp.Codes, newCodeResponse(e.Code, opts))
	}
	for _, f := range files {
		resp.Files = append(resp.Files, GeneratedFile{Name: f.Name, Content: string(f.Data)})
	}

	if req.Save {
		if err := s.catalog.SaveRun(r.Context(), &entry); err != nil {
			s.logger.Error("saving run failed", "device", device, "error", err)
			writeInternalError(w, "saving run failed")
			return
		}
		resp.RunID = entry.Run.ID
	}
	s.observeRun(res.Device, metrics.RunOK, len(res.Entries), len(res.Skipped))

	writeJSON(w, http.StatusOK, resp)
}

// observer avoids handing the generator a typed nil.
func (s *Server) observer() generator.Observer {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

func (s *Server) observeRun(device, outcome string, generated, skipped int) {
	s.metrics.ObserveRun(device, outcome, generated, skipped, time.Now())
}

func sourceErrorCode(err error) string {
	switch {
	case errors.Is(err, source.ErrUnknownFormat):
		return "unknown_format"
	case errors.Is(err, source.ErrMalformed):
		return "malformed_source"
	}
	return ErrCodeBadRequest
}
