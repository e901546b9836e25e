package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/urfave/cli/v2"
)

func runAutoAction(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}

	params := domain.RunParams{AccountID: c.String("account")}
	if c.IsSet("country") {
		country := c.String("country")
		params.Country = &country
	}
	params.HorizonDays = intFlag(c, "horizon-days")
	params.MinDaysCover = intFlag(c, "min-days-cover")
	params.ProductLimit = intFlag(c, "product-limit")
	params.AutoExecuteMaxQty = intFlag(c, "max-qty")
	if c.IsSet("auto-execute") {
		autoExecute := c.Bool("auto-execute")
		params.AutoExecute = &autoExecute
	}

	policy := service.ContinueOnError
	if c.Bool("stop-on-error") {
		policy = service.StopOnError
	}

	svc := st.container.AutoAction
	res, runErr := svc.Run(c.Context, svc.Resolve(params), domain.TriggerCLI, policy)
	if res != nil {
		if err := printJSON(c.App.Writer, res); err != nil {
			return err
		}
	}
	return runExitError(res, runErr)
}

// runExitError maps a run outcome to the process exit status: a failed run
// returns its error, and a finished run with any failed account exits 2.
func runExitError(res *domain.RunResult, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if res == nil || !res.OK {
		return cli.Exit("auto-action run finished with errors", 2)
	}
	return nil
}

func generateRecommendations(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}

	res, err := st.container.Recommendations.Generate(c.Context, c.String("account"), domain.GenerateRequest{
		ProductIDs:   splitList(c.String("products")),
		HorizonDays:  intFlag(c, "horizon-days"),
		MinDaysCover: intFlag(c, "min-days-cover"),
		Country:      c.String("country"),
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func listRecommendations(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}

	recs, err := st.container.Recommendations.List(c.Context, c.String("account"), c.String("status"), c.String("type"), c.String("country"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, recs)
}

func executeRecommendations(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}

	res, err := st.container.Recommendations.Execute(c.Context, c.String("account"), domain.ExecuteRequest{
		IDs:  splitList(c.String("ids")),
		Note: c.String("note"),
	}, service.SourceCLI)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func listExports(c *cli.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	if st.container.Exporter == nil {
		return cli.Exit("purchase order export is disabled (EXPORT_ENABLED=false)", 1)
	}

	objects, err := st.container.Exporter.List(c.Context, c.String("account"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, objects)
}

// intFlag returns nil when the flag was not given so configured defaults apply.
func intFlag(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
