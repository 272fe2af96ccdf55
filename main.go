package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"page-merger/merge"
)

func newRootCmd() *cobra.Command {
	var (
		password string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "page-merger <inputPath> <outputPath> <numberOfPagesToMerge>",
		Short: "Place the pages of a PDF file side by side, N pages per output page",
		Long: `page-merger repacks the pages of a PDF file onto wider pages.

Every output page holds up to N consecutive input pages, left to right and
aligned at the top. The output file is replaced only if the whole document
was merged successfully.`,
		Example: `  page-merger slides.pdf handout.pdf 2
  page-merger -p secret scan.pdf spread.pdf 3
  page-merger sizes handout.pdf
  page-merger serve --addr :8085`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: the number of pages to merge must be a positive integer, got %q",
					merge.ErrInvalidArgument, args[2])
			}

			// From here on, errors are not usage errors.
			cmd.SilenceUsage = true
			return runMerge(args[0], args[1], n, password, quiet)
		},
	}
	cmd.PersistentFlags().StringVarP(&password, "password", "p", "", "PDF password")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")

	cmd.AddCommand(newSizesCmd(&password), newServeCmd())
	return cmd
}

func newSizesCmd(password *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes <file.pdf>...",
		Short: "List the page sizes of PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			w := cmd.OutOrStdout()
			opt := &merge.Options{Password: *password}
			for _, fname := range args {
				sizes, err := merge.PageSizesFile(fname, opt)
				if err != nil {
					return err
				}
				if len(args) > 1 {
					fmt.Fprintf(w, "%s:\n", fname)
				}
				for i, sz := range sizes {
					fmt.Fprintf(w, "%4d  %g x %g\n", i+1, sz.Width, sz.Height)
				}
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merge operation over Connect RPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return serve(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8085", "listen address")
	return cmd
}

func runMerge(inPath, outPath string, n int, password string, quiet bool) error {
	opt := &merge.Options{Password: password}
	if !quiet {
		opt.Logf = log.Printf
	}

	_, err := merge.MergeFile(inPath, outPath, n, opt)
	if errors.Is(err, merge.ErrWrongPassword) && password == "" {
		pw, ok, promptErr := promptPassword(inPath)
		if promptErr != nil {
			return promptErr
		}
		if ok {
			opt.Password = pw
			_, err = merge.MergeFile(inPath, outPath, n, opt)
		}
	}
	if err != nil {
		return err
	}

	if !quiet {
		log.Printf("merged PDF saved as %s", outPath)
	}
	return nil
}

// promptPassword asks for the password of an encrypted file, if stdin is a
// terminal.
func promptPassword(fname string) (string, bool, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", false, nil
	}

	fmt.Fprintf(os.Stderr, "password for %s: ", fname)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", false, err
	}
	return string(pw), true, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
