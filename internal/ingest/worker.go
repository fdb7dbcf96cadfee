package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/hardytee1/LED-Automation/internal/doctree"
	"github.com/hardytee1/LED-Automation/internal/parser"
	"github.com/hardytee1/LED-Automation/internal/textsplit"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

// DocumentStore is the write side of the vector store used by ingestion.
type DocumentStore interface {
	EnsureCollection(ctx context.Context, collection string) error
	AddDocuments(ctx context.Context, collection string, docs []vectorstore.Document) (int, error)
}

// Worker processes a single archive ingestion job: extract the zip, parse
// every supported document into sections, split the sections, then embed and
// upsert the chunks into the report's collection.
type Worker struct {
	store    DocumentStore
	notifier *Notifier
	log      *slog.Logger
	splitter *textsplit.Splitter
}

func NewWorker(store DocumentStore, notifier *Notifier, log *slog.Logger, chunkSize, chunkOverlap int) *Worker {
	return &Worker{
		store:    store,
		notifier: notifier,
		log:      log,
		splitter: textsplit.NewSplitter(chunkSize, chunkOverlap),
	}
}

// Process runs the full ingest pipeline for a job. Per-file parse failures
// degrade the job; only an unreadable archive or zero produced chunks fail it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "batch_id", job.BatchID, "collection", job.ReportUUID)
	defer w.notifyTerminal(ctx, job, log)

	job.SetStatus(StatusExtracting, "extracting")
	data := job.ArchiveData()
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Error("invalid archive", "error", err)
		job.AddError(fmt.Sprintf("invalid zip archive: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	job.SetStatus(StatusParsing, "parsing")
	docs, hadErrors := w.parseArchive(archive, job, log)
	if len(docs) == 0 {
		log.Warn("no supported documents found")
		job.AddError("no supported documents found")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	snap := job.Snapshot()
	log.Info("parsed archive", "chunks", len(docs), "files_processed", snap.FilesProcessed, "files_skipped", snap.FilesSkipped)

	job.SetStatus(StatusEmbedding, "embedding")
	if err := w.store.EnsureCollection(ctx, job.ReportUUID); err != nil {
		log.Error("ensure collection failed", "error", err)
		job.AddError(fmt.Sprintf("ensure collection: %s", err))
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	added, err := w.addWithRetry(ctx, job.ReportUUID, docs, log)
	job.AddChunks(added)
	if err != nil {
		log.Error("storing chunks failed", "added", added, "error", err)
		job.AddError(fmt.Sprintf("store chunks: %s", err))
		if added > 0 {
			job.SetStatus(StatusPartial, "done")
		} else {
			job.SetStatus(StatusFailed, "embedding")
		}
		return
	}

	log.Info("ingestion complete", "chunks", added)
	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// parseArchive walks the zip members, parses each supported file, and returns
// the split chunks as store documents. The bool reports whether any file was
// skipped on error.
func (w *Worker) parseArchive(archive *zip.Reader, job *Job, log *slog.Logger) ([]vectorstore.Document, bool) {
	var docs []vectorstore.Document
	hadErrors := false
	order := 0

	for _, member := range archive.File {
		if member.FileInfo().IsDir() || skipArchiveMember(member.Name) {
			continue
		}
		filename := path.Base(member.Name)
		if !parser.IsSupportedExtension(filename) {
			job.AddFile(true)
			continue
		}

		tree, err := w.parseMember(member, filename)
		if err != nil {
			log.Warn("file parse failed, skipping", "file", member.Name, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", filename, err))
			job.AddFile(true)
			hadErrors = true
			continue
		}

		for _, section := range doctree.Flatten(tree) {
			for _, piece := range w.splitter.Split(section.Text) {
				docs = append(docs, vectorstore.Document{
					Text: piece,
					Metadata: map[string]any{
						"source":   member.Name,
						"heading":  section.Heading,
						"headings": section.Headings,
						"order":    order,
						"dl_meta": map[string]any{
							"origin":   map[string]any{"filename": filename},
							"headings": section.Headings,
						},
					},
				})
				order++
			}
		}
		job.AddFile(false)
	}
	return docs, hadErrors
}

func (w *Worker) parseMember(member *zip.File, filename string) (*doctree.DocTree, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	f, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive member: %w", err)
	}
	defer f.Close()
	return p.Parse(io.Reader(f), filename)
}

// addWithRetry upserts documents, retrying transient embedding failures with
// backoff.
func (w *Worker) addWithRetry(ctx context.Context, collection string, docs []vectorstore.Document, log *slog.Logger) (int, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		added, err := w.store.AddDocuments(ctx, collection, docs)
		if err == nil {
			return added, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return added, err
		}
		log.Warn("retryable store error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt, err)):
		case <-ctx.Done():
			return added, ctx.Err()
		}
	}
	return 0, lastErr
}

// notifyTerminal posts the job snapshot to the callback URL once the job has
// reached a terminal state.
func (w *Worker) notifyTerminal(ctx context.Context, job *Job, log *slog.Logger) {
	snap := job.Snapshot()
	switch snap.Status {
	case StatusCompleted, StatusFailed, StatusPartial:
	default:
		return
	}
	if job.CallbackURL == "" || w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, job.CallbackURL, snap); err != nil {
		log.Warn("completion callback failed", "url", job.CallbackURL, "error", err)
	}
}

// skipArchiveMember filters archive noise like macOS resource forks.
func skipArchiveMember(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}
