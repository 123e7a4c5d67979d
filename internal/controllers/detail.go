package controllers

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/issue-tracker-ui/internal/models"
)

// DetailController backs the read-only task view.
type DetailController struct {
	backend Backend
	log     *logrus.Entry
}

func NewDetailController(backend Backend, log *logrus.Entry) *DetailController {
	return &DetailController{backend: backend, log: log.WithField("controller", "detail")}
}

func (dc *DetailController) Load(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := dc.backend.GetTask(ctx, id)
	if err != nil {
		dc.log.WithField("task_id", id).WithError(err).Error("failed to load task")
		return nil, err
	}
	return task, nil
}
