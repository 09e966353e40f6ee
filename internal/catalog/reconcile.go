package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"shopfront/internal/assets"
	"shopfront/internal/models"
)

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Checked    int `json:"checked"`
	Resumed    int `json:"resumed"`
	Finalized  int `json:"finalized"`
	Thumbnails int `json:"thumbnails"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Reconcile settles products whose image write did not complete:
//
//   - a provisional or failed row whose staged file is still on disk is
//     resumed through the pipeline;
//   - one whose canonical file already exists only needs its row updated;
//   - one with neither is marked failed;
//   - a row missing only its thumbnail gets the thumbnail regenerated.
//
// Provisional rows younger than the grace period are left to the request
// that is still writing them.
func (s *Service) Reconcile(ctx context.Context, limit int) (*ReconcileReport, error) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	pending, err := s.products.ListPendingImages(ctx, limit)
	if err != nil {
		return nil, fromStore(err)
	}

	report := &ReconcileReport{}
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		report.Checked++

		switch p.ImageStatus {
		case models.ImageThumbMissing:
			s.reconcileThumbnail(ctx, &p, report)
		case models.ImageProvisional, models.ImageFailed:
			if p.ImageStatus == models.ImageProvisional && time.Since(p.UpdatedAt) < s.reconcileGrace {
				report.Skipped++
				continue
			}
			s.reconcileImage(ctx, &p, report)
		}
	}

	if report.Resumed+report.Finalized+report.Thumbnails > 0 {
		s.invalidate(ctx)
	}
	slog.Info("image reconciliation finished",
		"checked", report.Checked,
		"resumed", report.Resumed,
		"finalized", report.Finalized,
		"thumbnails", report.Thumbnails,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (s *Service) reconcileThumbnail(ctx context.Context, p *models.Product, report *ReconcileReport) {
	if err := s.assets.RegenerateThumbnail(ctx, p.Image); err != nil {
		slog.Warn("thumbnail regeneration failed", "product_id", p.ID, "image", p.Image, "error", err)
		report.Failed++
		return
	}
	if s.setImage(ctx, p.ID, p.Image, models.ImageReady) {
		report.Thumbnails++
	}
}

func (s *Service) reconcileImage(ctx context.Context, p *models.Product, report *ReconcileReport) {
	if assets.IsTempName(p.Image) {
		canonical := assets.CanonicalName(p.ID, filepath.Ext(p.Image))

		switch {
		case s.assets.Exists(p.Image):
			res, err := s.assets.Resume(ctx, p.Image, p.ID)
			if err == nil {
				if s.setImage(ctx, p.ID, res.Image, res.Status()) {
					report.Resumed++
				}
				return
			}
			slog.Warn("resume staged image failed", "product_id", p.ID, "image", p.Image, "error", err)

		case s.assets.Exists(canonical):
			status := models.ImageReady
			if err := s.assets.RegenerateThumbnail(ctx, canonical); err != nil {
				status = models.ImageThumbMissing
			}
			if s.setImage(ctx, p.ID, canonical, status) {
				report.Finalized++
			}
			return
		}
	}

	report.Failed++
	if p.ImageStatus != models.ImageFailed {
		s.setImage(ctx, p.ID, p.Image, models.ImageFailed)
	}
}

func (s *Service) setImage(ctx context.Context, id int64, image string, status models.ImageStatus) bool {
	if _, err := s.products.SetImage(ctx, id, image, status); err != nil {
		slog.Error("reconcile update product image", "product_id", id, "error", err)
		return false
	}
	return true
}
