package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"

	"guidsearch/internal/archive"
	"guidsearch/internal/command"
	"guidsearch/internal/config"
	"guidsearch/internal/device"
	"guidsearch/internal/logquery"
	"guidsearch/internal/model"
)

// Hooks lets the CLI layer observe pipeline progress without the stages
// knowing anything about presentation. All fields are optional.
type Hooks struct {
	// StageStart fires before a stage begins.
	StageStart func(model.Stage)

	// StageDone fires after a stage records its result.
	StageDone func(model.StageResult)

	// Poll fires on every failed presence check during the wait stage.
	Poll func()
}

// Pipeline wires the stages together over one command.Runner.
type Pipeline struct {
	cfg       config.Config
	device    *device.Manager
	collector *archive.Collector
	extractor *logquery.Extractor
	hooks     Hooks

	// newScope is swappable in tests to observe scope lifetime.
	newScope func() (*archive.Scope, error)
}

// New creates a Pipeline executing external commands through runner.
func New(cfg config.Config, runner command.Runner, hooks Hooks) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		device:    device.NewManager(cfg, runner),
		collector: archive.NewCollector(cfg, runner),
		extractor: logquery.NewExtractor(cfg, runner),
		hooks:     hooks,
		newScope:  archive.NewScope,
	}
}

// Run executes the full recovery workflow and returns the report. The
// report always carries one result per stage; stages after the first
// failure are marked skipped. Run never returns an error — every failure
// mode is an ordinary outcome inside the report.
func (p *Pipeline) Run(ctx context.Context) *model.RunReport {
	report := &model.RunReport{}

	// Stage 1: reboot dispatch.
	p.startStage(model.StageReboot)
	log.Info("sending device reboot command")
	if !p.device.Reboot(ctx) {
		p.record(report, model.StageReboot, model.StatusFailed, "reboot command failed")
		p.skipFrom(report, model.StageWait)
		return report
	}
	p.record(report, model.StageReboot, model.StatusOK, "")
	log.Info("reboot command sent")

	// Stage 2: bounded reconnection polling.
	p.startStage(model.StageWait)
	log.Info("waiting for device to reconnect")
	if !p.device.WaitForReconnect(ctx, p.hooks.Poll) {
		p.record(report, model.StageWait, model.StatusFailed, "device did not reconnect within the wait window")
		p.skipFrom(report, model.StageCollect)
		return report
	}
	p.record(report, model.StageWait, model.StatusOK, "")
	log.Info("device connected")

	// The archive scope opens here and closes when Run returns, covering
	// collection failure, extraction failure and success alike.
	scope, err := p.newScope()
	if err != nil {
		p.startStage(model.StageCollect)
		p.record(report, model.StageCollect, model.StatusFailed,
			fmt.Sprintf("failed to create archive directory: %v", err))
		p.skipFrom(report, model.StageExtract)
		return report
	}
	defer scope.Release()

	// Stage 3: archive collection and validation.
	p.startStage(model.StageCollect)
	log.Infof("collecting syslog archive (timeout %s)", p.cfg.CollectTimeout)
	if !p.collector.Collect(ctx, scope.ArchivePath()) {
		p.record(report, model.StageCollect, model.StatusFailed, "archive missing or undersized")
		p.skipFrom(report, model.StageExtract)
		return report
	}
	p.record(report, model.StageCollect, model.StatusOK, "")

	// Stage 4: filtered query and identifier extraction.
	p.startStage(model.StageExtract)
	log.Info("searching for GUID in archive")
	guid, err := p.extractor.Extract(ctx, scope.ArchivePath())
	switch {
	case errors.Is(err, logquery.ErrNotFound):
		p.record(report, model.StageExtract, model.StatusNotFound, "no identifier in archive")
	case err != nil:
		p.record(report, model.StageExtract, model.StatusFailed, err.Error())
	default:
		report.GUID = guid
		p.record(report, model.StageExtract, model.StatusOK, "")
		log.WithField("guid", guid).Info("GUID extracted")
	}
	return report
}

func (p *Pipeline) startStage(stage model.Stage) {
	if p.hooks.StageStart != nil {
		p.hooks.StageStart(stage)
	}
}

func (p *Pipeline) record(report *model.RunReport, stage model.Stage, status model.StageStatus, detail string) {
	result := model.StageResult{Stage: stage, Status: status, Detail: detail}
	report.Stages = append(report.Stages, result)
	if p.hooks.StageDone != nil {
		p.hooks.StageDone(result)
	}
}

// skipFrom marks stage and everything after it as skipped.
func (p *Pipeline) skipFrom(report *model.RunReport, stage model.Stage) {
	skipping := false
	for _, s := range model.Stages {
		if s == stage {
			skipping = true
		}
		if skipping {
			report.Stages = append(report.Stages, model.StageResult{Stage: s, Status: model.StatusSkipped})
		}
	}
}
