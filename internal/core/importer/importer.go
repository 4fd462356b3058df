package importer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mycelica/mycimport/internal/core/db"
	"github.com/mycelica/mycimport/internal/core/graph"
	"github.com/mycelica/mycimport/internal/platform/logger"
)

// DefaultBatchSize is the number of conversations per transaction
const DefaultBatchSize = 50

// ErrAlreadyImported is returned when a skip-existing import finds
// conversation nodes from an earlier run. Nothing is written.
var ErrAlreadyImported = errors.New("conversation nodes already exist")

// Options tunes a run
type Options struct {
	BatchSize int
	// MaxItems stops the run after this many items (0 = unlimited). Only
	// skip-existing imports honor it; replace imports always write whole
	// conversations so child counts stay exact.
	MaxItems int
}

// Result summarizes a run
type Result struct {
	Strategy      string
	Policy        graph.WritePolicy
	Total         int // Conversations offered
	Conversations int // Containers inserted
	Items         int
	Edges         int
	Skipped       int   // Conversations already present
	Existing      int   // Conversation-linked nodes found before an aborted run
	Cleared       int64 // Nodes removed by a replace run
	LimitReached  bool
}

// Importer writes a built graph into the database
type Importer struct {
	db   *db.DB
	log  *logger.Logger
	opts Options
}

// New creates a new importer
func New(database *db.DB, log *logger.Logger, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{db: database, log: log, opts: opts}
}

// Import writes g according to its write policy. Work is committed every
// BatchSize conversations; on error or cancellation the open batch is rolled
// back and earlier batches stay committed.
func (i *Importer) Import(ctx context.Context, g *graph.Graph, progress ProgressCallback) (*Result, error) {
	res := &Result{
		Strategy: g.Strategy,
		Policy:   g.Policy,
		Total:    len(g.Groups),
	}
	log := i.log.With("strategy", g.Strategy, "policy", g.Policy.String())

	if g.Policy == graph.PolicySkipExisting {
		existing, err := i.db.CountConversationNodes(ctx)
		if err != nil {
			return res, err
		}
		if existing > 0 {
			res.Existing = existing
			log.Warn("conversation nodes already exist, skipping import", "existing", existing)
			return res, ErrAlreadyImported
		}
	}

	tx, err := i.db.BeginTx(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if g.Policy == graph.PolicyReplace {
		res.Cleared, err = db.ClearGraph(ctx, tx)
		if err != nil {
			return res, err
		}
		log.Info("cleared existing graph", "nodes", res.Cleared)
	}

	maxItems := 0
	if g.Policy == graph.PolicySkipExisting {
		maxItems = i.opts.MaxItems
	}

	for idx := range g.Groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		grp := &g.Groups[idx]
		if err := i.writeGroup(ctx, tx, grp, res, maxItems); err != nil {
			return res, err
		}
		if progress != nil {
			progress.Update(idx+1, grp.Container.Title)
		}

		if maxItems > 0 && res.Items >= maxItems {
			res.LimitReached = true
			log.Info("item limit reached, stopping", "limit", maxItems)
			break
		}

		if (idx+1)%i.opts.BatchSize == 0 {
			if err := tx.Commit(); err != nil {
				tx = nil
				return res, fmt.Errorf("failed to commit batch: %w", err)
			}
			if progress != nil {
				progress.Committed(idx + 1)
			}
			tx, err = i.db.BeginTx(ctx)
			if err != nil {
				return res, fmt.Errorf("failed to begin transaction: %w", err)
			}
		}
	}

	err = tx.Commit()
	tx = nil
	if err != nil {
		return res, fmt.Errorf("failed to commit: %w", err)
	}

	return res, nil
}

func (i *Importer) writeGroup(ctx context.Context, tx *sql.Tx, grp *graph.Group, res *Result, maxItems int) error {
	if grp.Container.ID == "" {
		return errors.New("conversation without id")
	}

	if res.Policy == graph.PolicySkipExisting {
		exists, err := db.NodeExists(ctx, tx, grp.Container.ID)
		if err != nil {
			return err
		}
		if exists {
			res.Skipped++
			i.log.Debug("conversation already imported", "id", grp.Container.ID)
			return nil
		}
	}

	for _, ts := range grp.BadTimestamps {
		i.log.Debug("unparseable timestamp, using current time", "conversation", grp.Container.ID, "value", ts)
	}

	if err := i.db.InsertNode(ctx, tx, &grp.Container); err != nil {
		return err
	}
	res.Conversations++

	for j := range grp.Items {
		if err := i.db.InsertNode(ctx, tx, &grp.Items[j]); err != nil {
			return err
		}
		res.Items++
		if maxItems > 0 && res.Items >= maxItems {
			break
		}
	}

	for j := range grp.Edges {
		if err := db.InsertEdge(ctx, tx, &grp.Edges[j]); err != nil {
			return err
		}
		res.Edges++
	}

	return nil
}

// RecordRun appends the outcome of a run to the import log. runErr is the
// error returned by Import, if any.
func (i *Importer) RecordRun(ctx context.Context, sourcePath string, res *Result, runErr error) error {
	hash, err := computeFileHash(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}

	rec := db.ImportRecord{
		FilePath: sourcePath,
		FileHash: hash,
		Status:   db.ImportSuccess,
	}
	if res != nil {
		rec.Strategy = res.Strategy
		rec.ConversationsImported = res.Conversations
		rec.ItemsImported = res.Items
		rec.EdgesImported = res.Edges
		rec.Skipped = res.Skipped
	}

	switch {
	case errors.Is(runErr, ErrAlreadyImported):
		rec.Status = db.ImportAborted
		rec.ErrorMessage = runErr.Error()
	case runErr != nil:
		rec.Status = db.ImportFailed
		rec.ErrorMessage = runErr.Error()
	}

	// The run context may already be cancelled; the log entry still matters
	return i.db.RecordImport(context.WithoutCancel(ctx), rec)
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
