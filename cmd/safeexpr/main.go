// Package main is a calculator shell over the safeexpr evaluator.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calclab/safeexpr"
)

// Set via -ldflags at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "safeexpr [expression ...]",
	Short: "Safe multi-precision arithmetic evaluator",
	Long: `safeexpr evaluates arithmetic expressions under one of three numeric
domains: float (binary double), decimal (arbitrary precision), or fraction
(exact rationals). Expressions may be given as arguments; with none, it
reads one expression per line until a blank line or end of input.`,
	RunE: run,
}

func init() {
	rootCmd.Version = version
	rootCmd.Flags().String("mode", "", "numeric mode: float, decimal, or fraction (default float, env SAFEEXPR_MODE)")
	rootCmd.Flags().Uint32("precision", 0, "significant digits in decimal mode (default 28, env SAFEEXPR_PRECISION)")
	rootCmd.Flags().Bool("auto", false, "detect the mode from each expression instead of pinning one")
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	mode := envOrDefault("SAFEEXPR_MODE", "float")
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		mode = v
	}
	domain, err := safeexpr.ParseDomain(mode)
	if err != nil {
		return err
	}

	prec := safeexpr.DefaultPrecision
	if v := os.Getenv("SAFEEXPR_PRECISION"); v != "" {
		p, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("SAFEEXPR_PRECISION: %w", err)
		}
		prec = int(p)
	}
	if v, _ := cmd.Flags().GetUint32("precision"); v != 0 {
		prec = int(v)
	}

	auto, _ := cmd.Flags().GetBool("auto")

	eval := func(line string) {
		d := domain
		if auto {
			d = safeexpr.SelectMode(line)
		}
		res, err := safeexpr.Evaluate(line, d, safeexpr.Prec(uint32(prec)))
		if err != nil {
			fmt.Println(message(err))
			return
		}
		fmt.Println(res)
	}

	if len(args) > 0 {
		for _, a := range args {
			eval(a)
		}
		return nil
	}

	prompt := ""
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if auto {
			prompt = "[auto] "
		} else {
			prompt = "[" + domain.String() + "] "
		}
	}
	sc := bufio.NewScanner(os.Stdin)
	for {
		if prompt != "" {
			fmt.Print(prompt)
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			fmt.Println()
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			return nil
		}
		eval(line)
	}
}

// message renders an evaluation failure as a short user-facing line.
func message(err error) string {
	switch safeexpr.KindOf(err) {
	case safeexpr.KindDivisionByZero:
		return "error: division by zero"
	case safeexpr.KindSyntax, safeexpr.KindUnsupportedConstruct:
		return "invalid expression: " + err.Error()
	default:
		return "error: " + err.Error()
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
