package main

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/coolbeans/votetable/pkg/config"
	"github.com/coolbeans/votetable/pkg/container"
	"github.com/coolbeans/votetable/pkg/dataset"
	"github.com/coolbeans/votetable/pkg/filter"
	"github.com/coolbeans/votetable/pkg/votetable"
)

// pipeline loads datasets into a filtered dimension, renders the grouped
// table and hands the encoded result to the configured presenter.
type pipeline struct {
	cfg         *config.Config
	dimension   *filter.Dimension
	renderer    *votetable.Renderer
	presenter   container.Presenter
	format      votetable.Format
	textOptions votetable.TextOptions
	logger      logr.Logger
}

func newPipeline(cfg *config.Config, stdout io.Writer, logger logr.Logger) (*pipeline, error) {
	format, err := votetable.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	recordFilter, err := filter.ParseCriteria(cfg.Criteria())
	if err != nil {
		return nil, err
	}

	outputConfig := cfg.OutputConfig()
	outputConfig.Stdout = stdout
	presenter, err := container.New(outputConfig)
	if err != nil {
		return nil, err
	}

	dimension := filter.NewDimension(nil)
	dimension.Apply(recordFilter)

	return &pipeline{
		cfg:         cfg,
		dimension:   dimension,
		renderer:    votetable.NewRenderer(dimension, cfg.RenderOptions()),
		presenter:   presenter,
		format:      format,
		textOptions: votetable.TextOptions{NoColor: cfg.NoColor, ShowLinks: cfg.ShowLinks},
		logger:      logger,
	}, nil
}

// reload replaces the dimension's records with a fresh read of every
// dataset. On error the previous records stay in place.
func (p *pipeline) reload(ctx context.Context) error {
	records, err := dataset.LoadAll(ctx, p.cfg.Data)
	if err != nil {
		return err
	}
	p.dimension.Replace(records)
	p.logger.V(1).Info("datasets loaded", "files", len(p.cfg.Data), "records", len(records))
	return nil
}

// table renders the current filtered records.
func (p *pipeline) table() *votetable.Table {
	return p.renderer.Render(p.cfg.GroupBy)
}

func (p *pipeline) present(ctx context.Context) error {
	table := p.table()
	encoded, err := votetable.Encode(p.format, table, p.textOptions)
	if err != nil {
		return err
	}
	if err := p.presenter.Apply(ctx, encoded); err != nil {
		return fmt.Errorf("failed to present vote table: %w", err)
	}
	p.logger.V(1).Info("vote table rendered",
		"groupBy", table.GroupBy.String(),
		"groups", table.GroupCount(),
		"columns", len(table.Columns),
		"records", table.Total)
	return nil
}

// refresh is the full load-render-present cycle.
func (p *pipeline) refresh(ctx context.Context) error {
	if err := p.reload(ctx); err != nil {
		return err
	}
	return p.present(ctx)
}
