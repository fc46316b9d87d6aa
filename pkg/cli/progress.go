package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/cli/config"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
	"github.com/secmon-lab/hazop/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdProgress() *cli.Command {
	var repoCfg config.Repository
	var studyID string
	var includeRetired bool

	flags := append(repoCfg.Flags(),
		&cli.StringFlag{
			Name:        "study",
			Usage:       "Study ID. All studies are shown when omitted",
			Destination: &studyID,
		},
		&cli.BoolFlag{
			Name:        "include-retired",
			Usage:       "Include retired studies",
			Destination: &includeRetired,
		},
	)

	return &cli.Command{
		Name:    "progress",
		Aliases: []string{"p"},
		Usage:   "Show the completion checklist of HAZOP studies",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)

			var studies []*model.Study
			if studyID != "" {
				study, err := uc.Hazop.GetStudy(ctx, types.StudyID(studyID))
				if err != nil {
					return err
				}
				studies = []*model.Study{study}
			} else {
				studies, err = uc.Hazop.ListStudies(ctx, includeRetired)
				if err != nil {
					return err
				}
			}

			var w io.Writer = os.Stdout
			if c.Root().Writer != nil {
				w = c.Root().Writer
			}

			for _, study := range studies {
				p, err := uc.Hazop.Progress(ctx, study.ID)
				if err != nil {
					return err
				}
				printProgress(w, study, p)
			}
			return nil
		},
	}
}

var (
	doneMark    = color.New(color.FgGreen).Sprint("✓")
	pendingMark = color.New(color.FgRed).Sprint("✗")
	titleStyle  = color.New(color.Bold)
)

func printProgress(w io.Writer, study *model.Study, p *model.Progress) {
	_, _ = titleStyle.Fprintf(w, "%s (%s)\n", study.Title, study.ID)

	steps := []struct {
		label string
		done  bool
	}{
		{"Team created", p.TeamCreated},
		{"Nodes created", p.NodesCreated},
		{"Node details created", p.NodeDetailsCreated},
		{"Recommendations created", p.RecommendationsCreated},
		{"Recommendations assigned", p.RecommendationsAssigned},
		{"Recommendations completed", p.RecommendationsComplete},
		{"HAZOP final completed", p.HazopFinalCompleted},
	}
	for _, s := range steps {
		mark := pendingMark
		if s.done {
			mark = doneMark
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", mark, s.label)
	}
}
