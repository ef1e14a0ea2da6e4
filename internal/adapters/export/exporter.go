// Package export renders reaction networks to shareable artifacts (canonical
// JSON, CSV tables, PNG previews) through an asynchronous worker backed by a
// blob store.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"rxncore/internal/blob"
	"rxncore/internal/core"
	"rxncore/pkg/domain"
)

// Format identifies a rendering of a network.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPNG  Format = "png"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures a stored rendering of a network.
type Artifact struct {
	ID          string            `json:"id"`
	Key         string            `json:"key"`
	Format      Format            `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID           string     `json:"id"`
	NetworkIndex int        `json:"network_index"`
	NetworkID    string     `json:"network_id"`
	Formats      []Format   `json:"formats"`
	Status       Status     `json:"status"`
	Error        string     `json:"error,omitempty"`
	Artifacts    []Artifact `json:"artifacts,omitempty"`
	RequestedBy  string     `json:"requested_by,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker. An empty Formats slice
// requests JSON and CSV.
type Input struct {
	NetworkIndex int
	Formats      []Format
	RequestedBy  string
	Reason       string
}

// Scheduler queues network export requests and exposes status.
type Scheduler interface {
	Enqueue(ctx context.Context, input Input) (Record, error)
	Get(id string) (Record, bool)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor,omitempty"`
	NetworkID  string            `json:"network_id"`
	Status     Status            `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Worker executes network exports asynchronously.
type Worker struct {
	docs  *core.DocumentStore
	blobs blob.Store
	audit AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id string
}

type rendered struct {
	Artifact Artifact
	Payload  []byte
}

// NewWorker constructs an export worker. The blob store and audit logger may
// be nil; artifacts are then kept in record metadata only.
func NewWorker(docs *core.DocumentStore, blobs blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		docs:   docs,
		blobs:  blobs,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.docs == nil {
		return Record{}, fmt.Errorf("export: document store not configured")
	}
	networkID, err := w.docs.NetworkID(input.NetworkIndex)
	if err != nil {
		return Record{}, err
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		switch format {
		case FormatJSON, FormatCSV, FormatPNG:
		default:
			return Record{}, fmt.Errorf("export: unsupported format %q", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:           id,
		NetworkIndex: input.NetworkIndex,
		NetworkID:    networkID,
		Formats:      uniq,
		Status:       StatusQueued,
		RequestedBy:  input.RequestedBy,
		Reason:       input.Reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:         newID(),
			Action:     "network_export",
			Actor:      input.RequestedBy,
			NetworkID:  networkID,
			Status:     StatusQueued,
			Reason:     input.Reason,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- task{id: id}:
	default:
		return Record{}, fmt.Errorf("export: queue full")
	}

	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(t task) {
	record, ok := w.Get(t.id)
	if !ok {
		return
	}

	w.updateStatus(t.id, StatusRunning, "")

	net, err := w.docs.NetworkCopy(record.NetworkIndex)
	if err != nil {
		w.fail(t.id, fmt.Sprintf("load network: %v", err))
		return
	}

	artifacts := make([]Artifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		out, err := materialize(format, net)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		if w.blobs != nil {
			key := fmt.Sprintf("exports/%s/%s.%s", record.ID, out.Artifact.ID, format)
			info, err := w.blobs.Put(w.ctx, key, bytes.NewReader(out.Payload), blob.PutOptions{
				ContentType: out.Artifact.ContentType,
				Metadata:    out.Artifact.Metadata,
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			out.Artifact.Key = info.Key
			out.Artifact.URL = info.URL
			if info.Size > 0 {
				out.Artifact.SizeBytes = info.Size
			}
		}
		artifacts = append(artifacts, out.Artifact)
	}

	w.complete(t.id, artifacts)
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	var networkID, actor string
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		networkID, actor = record.NetworkID, record.RequestedBy
	}
	w.mu.Unlock()
	if w.audit != nil {
		entry := AuditEntry{
			ID:         newID(),
			Action:     "network_export",
			Actor:      actor,
			NetworkID:  networkID,
			Status:     status,
			OccurredAt: now,
		}
		if message != "" {
			entry.Metadata = map[string]string{"note": message}
		}
		w.audit.Record(w.ctx, entry)
	}
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	var networkID, actor string
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		networkID, actor = record.NetworkID, record.RequestedBy
	}
	w.mu.Unlock()
	if w.audit != nil {
		w.audit.Record(w.ctx, AuditEntry{
			ID:         newID(),
			Action:     "network_export",
			Actor:      actor,
			NetworkID:  networkID,
			Status:     StatusSucceeded,
			OccurredAt: now,
		})
	}
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	var networkID, actor string
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		networkID, actor = record.NetworkID, record.RequestedBy
	}
	w.mu.Unlock()
	if w.audit != nil {
		w.audit.Record(w.ctx, AuditEntry{
			ID:         newID(),
			Action:     "network_export",
			Actor:      actor,
			NetworkID:  networkID,
			Status:     StatusFailed,
			Metadata:   map[string]string{"error": reason},
			OccurredAt: now,
		})
	}
}

func materialize(format Format, net *domain.Network) (rendered, error) {
	switch format {
	case FormatJSON:
		payload, err := domain.EncodeNetwork(net)
		if err != nil {
			return rendered{}, fmt.Errorf("encode json: %w", err)
		}
		return newRendered(FormatJSON, "application/json", payload, net), nil
	case FormatCSV:
		payload, err := buildCSV(net.ToDocument())
		if err != nil {
			return rendered{}, fmt.Errorf("encode csv: %w", err)
		}
		return newRendered(FormatCSV, "text/csv", payload, net), nil
	case FormatPNG:
		payload, err := buildPNG(net.ToDocument())
		if err != nil {
			return rendered{}, fmt.Errorf("encode png: %w", err)
		}
		return newRendered(FormatPNG, "image/png", payload, net), nil
	default:
		return rendered{}, fmt.Errorf("export: unsupported format %q", format)
	}
}

func newRendered(format Format, contentType string, payload []byte, net *domain.Network) rendered {
	return rendered{
		Artifact: Artifact{
			ID:          newID(),
			Format:      format,
			ContentType: contentType,
			SizeBytes:   int64(len(payload)),
			Metadata: map[string]string{
				"network":   net.ID,
				"nodes":     strconv.Itoa(len(net.Nodes)),
				"reactions": strconv.Itoa(len(net.Reactions)),
			},
			CreatedAt: time.Now().UTC(),
		},
		Payload: payload,
	}
}

// buildCSV emits a species table followed by a reaction table, separated by
// an empty record. Alias glyphs are omitted from the species table; reaction
// endpoints already resolve to identity IDs in the document form.
func buildCSV(doc domain.NetworkDocument) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"species", "concentration", "compartment", "x", "y", "w", "h"}); err != nil {
		return nil, err
	}
	compartments := make(map[int]string, len(doc.Compartments))
	for _, comp := range doc.Compartments {
		compartments[comp.Index] = comp.ID
	}
	for _, node := range doc.Nodes {
		if node.Original != domain.NoOriginal {
			continue
		}
		row := []string{
			node.ID,
			formatFloat(node.Concentration),
			compartments[node.Compartment],
			formatFloat(node.X),
			formatFloat(node.Y),
			formatFloat(node.W),
			formatFloat(node.H),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	if err := writer.Write([]string{""}); err != nil {
		return nil, err
	}
	if err := writer.Write([]string{"reaction", "rate_law", "sources", "targets"}); err != nil {
		return nil, err
	}
	for _, rea := range doc.Reactions {
		row := []string{rea.ID, rea.RateLaw, formatEndpoints(rea.Sources), formatEndpoints(rea.Targets)}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatEndpoints renders a stoichiometry map as "id:stoich" pairs joined by
// semicolons, in ID order.
func formatEndpoints(refs map[string]float64) string {
	ids := make([]string, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	buf := &bytes.Buffer{}
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(id)
		buf.WriteByte(':')
		buf.WriteString(formatFloat(refs[id]))
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

const (
	pngMaxDim  = 1600
	pngPadding = 20.0
)

// buildPNG renders a flat raster preview: white canvas, compartment rects
// underneath, node rects on top, each filled with its document color.
func buildPNG(doc domain.NetworkDocument) ([]byte, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x, y, w, h float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x+w)
		maxY = math.Max(maxY, y+h)
	}
	for _, comp := range doc.Compartments {
		extend(comp.X, comp.Y, comp.W, comp.H)
	}
	for _, node := range doc.Nodes {
		extend(node.X, node.Y, node.W, node.H)
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 100, 100
	}
	minX -= pngPadding
	minY -= pngPadding
	maxX += pngPadding
	maxY += pngPadding

	scale := 1.0
	if span := math.Max(maxX-minX, maxY-minY); span > pngMaxDim {
		scale = pngMaxDim / span
	}
	width := int(math.Ceil((maxX - minX) * scale))
	height := int(math.Ceil((maxY - minY) * scale))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	fill := func(x, y, w, h float64, c domain.Color) {
		x0 := int(math.Floor((x - minX) * scale))
		y0 := int(math.Floor((y - minY) * scale))
		x1 := int(math.Ceil((x + w - minX) * scale))
		y1 := int(math.Ceil((y + h - minY) * scale))
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}
		src := color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{src}, image.Point{}, draw.Over)
	}
	for _, comp := range doc.Compartments {
		fill(comp.X, comp.Y, comp.W, comp.H, comp.FillColor)
	}
	for _, node := range doc.Nodes {
		fill(node.X, node.Y, node.W, node.H, node.FillColor)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	return uuid.NewString()
}
