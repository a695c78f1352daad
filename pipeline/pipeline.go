// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models/cement"
	"github.com/katalvlaran/eumfa/reconcile"
	"github.com/katalvlaran/eumfa/remap"
	"github.com/katalvlaran/eumfa/table"
)

// OutputValue is the value column name of every reconciliation file read
// by a sub-model.
const OutputValue = "Value"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the in-process sub-model runner.
func WithRunner(r Runner) Option { return func(p *Pipeline) { p.runner = r } }

// WithLogger sets the logger; the run id is attached to it.
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.log = l } }

// Pipeline executes one combined run.
type Pipeline struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

// New returns a Pipeline over cfg.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = ModelRunner{Logger: p.log}
	}

	return p
}

// Report lists what a run produced.
type Report struct {
	RunID string
	// Written holds every file written, in order.
	Written []string
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	ctx       context.Context
	log       *slog.Logger
	report    *Report
	buildings map[mfa.FlowID]*table.Table
	vehicles  map[mfa.FlowID]*table.Table
}

// Run executes every enabled stage in order.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString()}
	r := &run{Pipeline: p, ctx: ctx, log: p.log.With("run", rep.RunID), report: rep}
	s := p.cfg.p
	r.log.Info("combined run", "base_year", s.BaseYear, "downstream_only", s.DownstreamOnly)

	if !s.DownstreamOnly {
		if err := r.bottomUp(); err != nil {
			return rep, err
		}
	}
	if s.CombinePlastics {
		if err := r.demandTarget(plasticsTarget(s)); err != nil {
			return rep, err
		}
	}
	if s.CombineSteel {
		if err := r.demandTarget(steelTarget(s)); err != nil {
			return rep, err
		}
	}
	if s.CombineCement {
		if err := r.cement(cementTarget(s)); err != nil {
			return rep, err
		}
	}
	r.log.Info("combined run finished", "files", len(rep.Written))

	return rep, nil
}

func (r *run) bottomUp() error {
	s := r.cfg.p
	if s.UseBuildings {
		flows, err := r.runner.Run(r.ctx, s.Models.Buildings)
		if err != nil {
			return stageErr(StageBottomUp, "", s.Models.Buildings, err)
		}
		r.buildings = flows
	}
	if s.UseVehicles {
		flows, err := r.runner.Run(r.ctx, s.Models.Vehicles)
		if err != nil {
			// Buildings alone still reconcile.
			r.log.Warn("vehicles run failed, continuing without", "config", s.Models.Vehicles, "err", err)
		} else {
			r.vehicles = flows
		}
	}

	return nil
}

func (r *run) flowsOf(model string) map[mfa.FlowID]*table.Table {
	if model == "vehicles" {
		return r.vehicles
	}

	return r.buildings
}

// write stores t at path, renaming the value column to OutputValue when
// rename is set.
func (r *run) write(t *table.Table, path string, rename bool) error {
	if rename && t.Value() != "" {
		var err error
		if t, err = t.Rename(map[string]string{t.Value(): OutputValue}); err != nil {
			return err
		}
	}
	if err := t.Write(path, ','); err != nil {
		return err
	}
	r.report.Written = append(r.report.Written, path)
	r.log.Info("written", "path", path, "rows", t.Len())

	return nil
}

// mapSource maps a bottom-up flow table onto tg: regions first, then
// products, then column standardization.
func (r *run) mapSource(tg target, flow *table.Table, src source) (*table.Table, error) {
	s := r.cfg.p
	regionsPath, productsPath := s.Mapping[src.regions], s.Mapping[src.products]
	regions, err := remap.LoadRules(regionsPath, 0)
	if err != nil {
		return nil, stageErr(StageRemap, tg.name, regionsPath, err)
	}
	mapped, err := remap.MapRegions(flow, "Region", tg.regionCol, regions, r.log)
	if err != nil {
		return nil, stageErr(StageRemap, tg.name, regionsPath, err)
	}
	products, err := remap.LoadRules(productsPath, s.Delimiter(tg.name))
	if err != nil {
		return nil, stageErr(StageRemap, tg.name, productsPath, err)
	}
	mapped, rep, err := remap.Remap(mapped, products, remap.Options{
		DropSourceDim: true,
		RegionColumn:  tg.regionCol,
		Catalog:       remap.NewCatalog(s.Catalogs[tg.name]),
		Logger:        r.log,
	})
	if err != nil {
		return nil, stageErr(StageRemap, tg.name, productsPath, err)
	}
	if rep.Unmatched > 0 {
		r.log.Warn("bottom-up rows without product rule", "target", tg.name, "flow", src.flow,
			"rows", rep.Unmatched, "elements", rep.UnmatchedElements)
	}
	out, err := tg.standardize(mapped)
	if err != nil {
		return nil, stageErr(StageRemap, tg.name, productsPath, err)
	}

	return out, nil
}

// mappedBottomUp maps every available source of tg and writes the union.
func (r *run) mappedBottomUp(tg target) (*table.Table, error) {
	cols := tg.columns()
	var parts []*table.Table
	for _, src := range tg.sources {
		flow, ok := r.flowsOf(src.model)[mfa.FlowID(src.flow)]
		if !ok {
			if r.flowsOf(src.model) != nil {
				r.log.Warn("source flow not in bottom-up result", "target", tg.name, "flow", src.flow)
			}
			continue
		}
		part, err := r.mapSource(tg, flow, src)
		if err != nil {
			return nil, err
		}
		if part, err = part.GroupSum(cols...); err != nil {
			return nil, stageErr(StageRemap, tg.name, "", err)
		}
		parts = append(parts, part)
	}
	out, err := table.New(cols, table.DefaultValue)
	if err != nil {
		return nil, err
	}
	if len(parts) > 0 {
		if out, err = table.Concat(parts...); err != nil {
			return nil, stageErr(StageRemap, tg.name, "", err)
		}
		if out, err = out.GroupSum(cols...); err != nil {
			return nil, stageErr(StageRemap, tg.name, "", err)
		}
	}
	path := tg.path(tg.bottomUp)
	if err = r.write(out, path, false); err != nil {
		return nil, stageErr(StageRemap, tg.name, path, err)
	}

	return out, nil
}

// residual reads start and growth values and projects the residual.
func (r *run) residual(tg target, bottomUp *table.Table) (*table.Table, error) {
	start, err := table.Read(tg.start, table.ReadOptions{Delimiter: tg.startDelim})
	if err != nil {
		return nil, stageErr(StageResidual, tg.name, tg.start, err)
	}
	if start, err = tg.standardize(start); err != nil {
		return nil, stageErr(StageResidual, tg.name, tg.start, err)
	}
	growth, err := table.Read(tg.growth, table.ReadOptions{Delimiter: tg.startDelim})
	if err != nil {
		return nil, stageErr(StageResidual, tg.name, tg.growth, err)
	}
	if !tg.rawGrowth {
		if growth, err = tg.standardize(growth); err != nil {
			return nil, stageErr(StageResidual, tg.name, tg.growth, err)
		}
	}
	res, err := reconcile.Residual(start, bottomUp, growth, reconcile.ResidualOptions{
		BaseYear:   r.cfg.p.BaseYear,
		TimeColumn: tg.timeCol,
		Keys:       tg.keys,
		Logger:     r.log,
	})
	if err != nil {
		return nil, stageErr(StageResidual, tg.name, tg.start, err)
	}
	path := tg.path("demand_future.csv")
	if err = r.write(res, path, true); err != nil {
		return nil, stageErr(StageResidual, tg.name, path, err)
	}

	return res, nil
}

func (r *run) runFlows(tg target) (map[mfa.FlowID]*table.Table, error) {
	flows, err := r.runner.Run(r.ctx, tg.model)
	if err != nil {
		return nil, stageErr(StageFlows, tg.name, tg.model, err)
	}

	return flows, nil
}

// demandTarget reconciles plastics or steel: FinalDemand is bottom-up
// plus residual after the base year.
func (r *run) demandTarget(tg target) error {
	if r.cfg.p.DownstreamOnly {
		_, err := r.runFlows(tg)
		return err
	}
	bu, err := r.mappedBottomUp(tg)
	if err != nil {
		return err
	}
	res, err := r.residual(tg, bu)
	if err != nil {
		return err
	}
	allFill := reconcile.Fills{"element": "All"}
	total, err := reconcile.TotalFuture([]reconcile.Named{
		{Name: "bottom_up", Table: bu},
		{Name: "residual", Table: res},
	}, reconcile.TotalOptions{
		Keys:        tg.keys,
		TimeColumn:  tg.timeCol,
		BaseYear:    r.cfg.p.BaseYear,
		Fills:       map[string]reconcile.Fills{"bottom_up": allFill, "residual": allFill},
		DefaultFill: reconcile.DefaultFill,
	})
	final := tg.path("FinalDemand.csv")
	if err != nil {
		return stageErr(StageTotals, tg.name, final, err)
	}
	if err = r.write(total, final, true); err != nil {
		return stageErr(StageTotals, tg.name, final, err)
	}
	if _, err = r.runFlows(tg); err != nil {
		return err
	}

	hist := tg.path("FinalDemand_historic.csv")
	if _, err = os.Stat(hist); errors.Is(err, fs.ErrNotExist) {
		r.log.Info("no historic final demand, combine skipped", "target", tg.name, "path", hist)
		return nil
	}

	return r.combine(tg, hist, final, tg.path("FinalDemand_all.csv"))
}

func (r *run) combine(tg target, hist, fut, out string) error {
	_, err := reconcile.CombineFiles(hist, fut, out, reconcile.CombineOptions{
		TimeColumn:  tg.timeCol,
		ValueColumn: OutputValue,
		Logger:      r.log,
	})
	if err != nil {
		return stageErr(StageCombine, tg.name, out, err)
	}
	r.report.Written = append(r.report.Written, out)

	return nil
}

// cement runs stock -> totals -> flows -> combine for the cement chain.
func (r *run) cement(tg target) error {
	s := r.cfg.p
	if s.DownstreamOnly {
		_, err := r.runFlows(tg)
		return err
	}
	bu, err := r.mappedBottomUp(tg)
	if err != nil {
		return err
	}
	res, err := r.residual(tg, bu)
	if err != nil {
		return err
	}
	r.diagnose(res)

	stockFlows, err := r.runner.Run(r.ctx, s.Models.CementStock)
	if err != nil {
		return stageErr(StageStock, tg.name, s.Models.CementStock, err)
	}
	eol, ok := stockFlows[mfa.FlowID(cement.FutureEoLFlow)]
	if !ok {
		return stageErr(StageStock, tg.name, s.Models.CementStock, mfa.ErrUnknownFlow)
	}
	if eol, err = tg.standardize(eol); err != nil {
		return stageErr(StageStock, tg.name, s.Models.CementStock, err)
	}

	// At the base year the total equals the start value.
	total, err := reconcile.TotalFuture([]reconcile.Named{
		{Name: "bottom_up", Table: bu},
		{Name: "residual", Table: res},
	}, reconcile.TotalOptions{
		Keys:            tg.keys,
		TimeColumn:      tg.timeCol,
		BaseYear:        s.BaseYear,
		IncludeBaseYear: true,
		DefaultFill:     reconcile.DefaultFill,
	})
	demandPath := filepath.Join(s.TopDown.CementFlowsDir, "total_future_demand.csv")
	if err != nil {
		return stageErr(StageTotals, tg.name, demandPath, err)
	}
	if err = r.write(total, demandPath, true); err != nil {
		return stageErr(StageTotals, tg.name, demandPath, err)
	}
	eolPath := filepath.Join(s.TopDown.CementFlowsDir, "total_future_eol_flows.csv")
	if s.SplitBuildingsEoL {
		if eol, err = r.withBuildingsEoL(tg, eol); err != nil {
			return err
		}
	}
	if err = r.write(eol, eolPath, true); err != nil {
		return stageErr(StageTotals, tg.name, eolPath, err)
	}

	flows, err := r.runFlows(tg)
	if err != nil {
		return err
	}

	return r.combineMarket(tg, flows)
}

// withBuildingsEoL adds the post-base-year part of the buildings concrete
// EoL, split by age cohort, to the residual EoL.
func (r *run) withBuildingsEoL(tg target, eol *table.Table) (*table.Table, error) {
	s := r.cfg.p
	flow, ok := r.buildings[mfa.FlowID(s.SourceFlows.BuildingsEoL)]
	if !ok {
		r.log.Warn("buildings EoL flow not available, split skipped", "flow", s.SourceFlows.BuildingsEoL)
		return eol, nil
	}
	split, err := reconcile.SplitCohorts(flow, s.BaseYear, reconcile.CohortColumn)
	if err != nil {
		return nil, stageErr(StageTotals, tg.name, "", err)
	}
	mapped, err := r.mapSource(tg, split, source{
		model:    "buildings",
		flow:     s.SourceFlows.BuildingsEoL,
		regions:  config.MapBuildingsConcreteRegions,
		products: config.MapBuildingsConcreteProducts,
	})
	if err != nil {
		return nil, err
	}
	total, err := reconcile.TotalFuture([]reconcile.Named{
		{Name: "residual", Table: eol},
		{Name: "buildings", Table: mapped},
	}, reconcile.TotalOptions{Keys: tg.keys, TimeColumn: tg.timeCol, DefaultFill: reconcile.DefaultFill})
	if err != nil {
		return nil, stageErr(StageTotals, tg.name, "", err)
	}

	return total, nil
}

// combineMarket writes the concrete market flows of both chains, the
// historic one up to and the future one after the base year, and merges
// them into concrete_market_all.csv.
func (r *run) combineMarket(tg target, flows map[mfa.FlowID]*table.Table) error {
	s := r.cfg.p
	dir := s.TopDown.CementFlowsDir
	parts := []struct {
		flow   string
		file   string
		keepLE bool
	}{
		{cement.HistoricMarketFlow, "concrete_market_historic.csv", true},
		{cement.FutureMarketFlow, "concrete_market_future.csv", false},
	}
	paths := make([]string, len(parts))
	for i, part := range parts {
		t, ok := flows[mfa.FlowID(part.flow)]
		if !ok {
			r.log.Warn("market flow missing, combine skipped", "flow", part.flow)
			return nil
		}
		keep := part.keepLE
		t = t.Filter(func(row table.Row) bool {
			y, ok := table.ParseInt(row.Get(tg.timeCol))
			return ok && (y <= s.BaseYear) == keep
		})
		paths[i] = filepath.Join(dir, part.file)
		if err := r.write(t, paths[i], true); err != nil {
			return stageErr(StageCombine, tg.name, paths[i], err)
		}
	}

	return r.combine(tg, paths[0], paths[1], filepath.Join(dir, "concrete_market_all.csv"))
}

// diagnose logs the residual demand summed by sector and product.
func (r *run) diagnose(res *table.Table) {
	sum, err := res.GroupSum(cementSector, cementProduct)
	if err != nil {
		r.log.Warn("residual diagnostics unavailable", "err", err)
		return
	}
	for i := 0; i < sum.Len(); i++ {
		r.log.Info("residual demand", "sector", sum.Key(i, cementSector), "product", sum.Key(i, cementProduct),
			"total", sum.Val(i))
	}
}
