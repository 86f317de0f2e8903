// Command itagsctl runs the ITAGS allocation search and MILP scheduler
// against a problem document, either once from the command line (solve) or
// as a long-running HTTP service (serve).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/itags-scheduler/internal/benders"
	"github.com/elektrokombinacija/itags-scheduler/internal/config"
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/envpool"
	"github.com/elektrokombinacija/itags-scheduler/internal/httpapi"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/obslog"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/problem"
	"github.com/elektrokombinacija/itags-scheduler/internal/search"
)

var version = "dev"

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:     "itagsctl",
		Short:   "Run ITAGS allocation search and MILP scheduling for multi-robot task allocation",
		Version: version,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	root.AddCommand(newSolveCmd(&cfgFile))
	root.AddCommand(newServeCmd(&cfgFile))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadLogger(cfgFile string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := obslog.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newSolveCmd(cfgFile *string) *cobra.Command {
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a single problem document and print the result document",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := loadLogger(*cfgFile)
			if err != nil {
				return err
			}
			defer log.Sync()

			var data []byte
			if inputPath == "" || inputPath == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(inputPath)
			}
			if err != nil {
				return fmt.Errorf("read problem document: %w", err)
			}

			doc, fieldErrs, err := problem.Parse(data)
			if err != nil {
				return err
			}
			if len(fieldErrs) > 0 {
				for _, fe := range fieldErrs {
					fmt.Fprintln(os.Stderr, fe.Error())
				}
				return fmt.Errorf("problem document failed validation")
			}

			inst, err := doc.ToInstance()
			if err != nil {
				return err
			}

			out, err := solveOnce(cmd.Context(), log, doc, inst)
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "in", "i", "", "problem document path (default: stdin)")
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "result document path (default: stdout)")
	return cmd
}

func newServeCmd(cfgFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocation-search/scheduling engine over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadLogger(*cfgFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr == "" {
				addr = cfg.HTTPAddr
			}

			poolSize := cfg.WorkerPoolSize
			if poolSize <= 0 {
				poolSize = 1
			}
			pool := envpool.NewPool(poolSize)
			tk := envpool.DefaultTimekeeper()

			srv := httpapi.NewServer(log, pool, tk)
			httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", addr))
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
			case <-ctx.Done():
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

// solveOnce runs the deterministic ITAGS search and, for stochastic or
// learned-selector scheduler configs, additionally scores the resulting
// allocation's robustness via the Benders stochastic master.
func solveOnce(ctx context.Context, log *zap.Logger, doc *problem.Document, inst *domain.Instance) (*problem.Result, error) {
	tk := envpool.DefaultTimekeeper()
	orc := oracle.NewDefault(
		func(robot domain.RobotID) float64 {
			r := inst.RobotByID(robot)
			if r == nil {
				return 0
			}
			sp := inst.SpeciesOf(*r)
			if sp == nil {
				return 0
			}
			return sp.Speed
		},
		func(robot domain.RobotID) domain.Configuration {
			r := inst.RobotByID(robot)
			if r == nil {
				return domain.Configuration{}
			}
			return r.Initial
		},
	)

	schedParams := milp.DefaultParams()
	schedParams.Threads = doc.SchedulerParameters.Threads
	schedParams.UseHierarchicalObjective = doc.SchedulerParameters.UseHierarchicalObjective
	scheduler := milp.NewScheduler(orc, schedParams, tk)

	searchParams := search.DefaultParams()
	searchParams.HasTimeout = doc.ItagsParameters.HasTimeout
	searchParams.Reverse = doc.UseReverse

	sch := search.New(inst, scheduler, tk, searchParams)
	result, rerr := sch.Run(ctx)
	stats := problem.Statistics{
		NodesGenerated: sch.Statistics().NodesGenerated,
		NodesEvaluated: sch.Statistics().NodesEvaluated,
		NodesExpanded:  sch.Statistics().NodesExpanded,
		NodesPruned:    sch.Statistics().NodesPruned,
		NodesDeadend:   sch.Statistics().NodesDeadend,
	}
	if rerr != nil {
		return problem.NewFailureResult(rerr, stats), nil
	}

	out := problem.NewSuccessResult(result.Allocation, result.Schedule, stats)

	if doc.SchedulerParameters.ConfigType == problem.SchedulerConfigStochastic ||
		doc.SchedulerParameters.ConfigType == problem.SchedulerConfigLearned {
		solver := benders.New(orc, benders.DefaultParams(), tk, nil)
		if _, brerr := solver.Solve(ctx, inst, result.Allocation); brerr != nil {
			log.Warn("stochastic scoring failed", zap.Error(brerr))
		}
	}

	return out, nil
}
