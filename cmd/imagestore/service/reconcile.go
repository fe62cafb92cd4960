package service

import (
	"context"
	"time"

	"github.com/medview/imagestore/common/logger"
)

// ReconcileReport lists the two inconsistencies the store can accumulate:
// blobs with no referencing record (orphaned by an insert failure after the
// blob write) and records whose blob is gone (dangled by a row-delete
// failure after the blob delete).
type ReconcileReport struct {
	OrphanBlobs     []string `json:"orphanBlobs"`
	DanglingRecords []int64  `json:"danglingRecords"`
}

// Clean reports whether the sweep found no inconsistencies
func (r *ReconcileReport) Clean() bool {
	return len(r.OrphanBlobs) == 0 && len(r.DanglingRecords) == 0
}

// ReconcileService periodically cross-checks the catalog against the blob
// store. It only reports; recovery stays a manual operation.
type ReconcileService struct {
	catalog Catalog
	blobs   BlobStore
	log     *logger.Logger
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(catalog Catalog, blobs BlobStore, log *logger.Logger) *ReconcileService {
	return &ReconcileService{
		catalog: catalog,
		blobs:   blobs,
		log:     log,
	}
}

// Sweep compares all catalog storage keys with all stored blobs
func (s *ReconcileService) Sweep(ctx context.Context) (*ReconcileReport, error) {
	keys, err := s.catalog.ListStorageKeys(ctx)
	if err != nil {
		return nil, err
	}

	blobKeys, err := s.blobs.List()
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}

	onDisk := make(map[string]bool, len(blobKeys))
	for _, key := range blobKeys {
		onDisk[key] = true
		if _, ok := keys[key]; !ok {
			report.OrphanBlobs = append(report.OrphanBlobs, key)
		}
	}

	for key, id := range keys {
		if !onDisk[key] {
			report.DanglingRecords = append(report.DanglingRecords, id)
		}
	}

	if report.Clean() {
		s.log.Debug("reconciliation sweep clean",
			"records", len(keys), "blobs", len(blobKeys))
	} else {
		s.log.Warn("reconciliation sweep found inconsistencies",
			"orphan_blobs", len(report.OrphanBlobs),
			"dangling_records", len(report.DanglingRecords))
	}

	return report, nil
}

// Run sweeps on the given interval until the context is cancelled
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}
