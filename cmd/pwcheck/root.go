package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "pwcheck",
		Short:         "Offline password strength analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.AddCommand(newAnalyzeCmd(), newWordlistCmd())
	return root
}

type analyzeOpts struct {
	profile      map[string]*string
	useWordlist  bool
	wordlistFile string
	asJSON       bool
}

func newAnalyzeCmd() *cobra.Command {
	o := analyzeOpts{profile: map[string]*string{}}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a password read from the terminal or stdin",
		Long: `Score a password and list its weaknesses.

The password is never taken from arguments. On a terminal it is read without echo;
otherwise the first line of stdin is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := password.CheckInput(pwd); err != nil {
				return fmt.Errorf("password rejected: %w", err)
			}
			cfg, err := o.config()
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), password.Analyze(pwd, cfg), o.asJSON)
		},
	}

	f := cmd.Flags()
	for flag, field := range map[string]password.Field{
		"name":       password.FieldName,
		"nickname":   password.FieldNickname,
		"birth-date": password.FieldBirthDate,
		"pet-name":   password.FieldPetName,
	} {
		o.profile[string(field)] = f.String(flag, "", "personal info: "+field.Humanize())
	}
	f.BoolVar(&o.useWordlist, "wordlist", false, "check against the common weak password list")
	f.StringVar(&o.wordlistFile, "wordlist-file", "", "replace the built-in list with this file (implies --wordlist)")
	f.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (o analyzeOpts) config() (password.Config, error) {
	values := make(map[password.Field]string, len(o.profile))
	for k, v := range o.profile {
		values[password.Field(k)] = *v
	}
	cfg := password.Config{
		Profile:  password.NewProfile(values),
		Wordlist: password.DefaultWordlist().WithEnabled(o.useWordlist),
	}
	if o.wordlistFile != "" {
		words, err := readWordlistFile(o.wordlistFile)
		if err != nil {
			return password.Config{}, err
		}
		cfg.Wordlist = password.NewWordlist(words, true)
	}
	return cfg, nil
}

func readWordlistFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()
	return password.ParseWordlist(f)
}

// readPassword prompts without echo on a terminal, otherwise takes stdin's first line.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type jsonResult struct {
	password.Result
	Strength string `json:"strength"`
}

func printResult(w io.Writer, res password.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonResult{Result: res, Strength: res.Strength()})
	}

	fmt.Fprintf(w, "Score:      %d/100 (%s)\n", res.Score, res.Strength())
	fmt.Fprintf(w, "Crack time: %s\n", res.CrackTime)
	printList(w, "Weaknesses", res.Weaknesses)
	printList(w, "Suggestions", res.Suggestions)
	return nil
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func newWordlistCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "wordlist",
		Short: "Print the common weak password list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			words := password.SeedWords()
			if file != "" {
				var err error
				if words, err = readWordlistFile(file); err != nil {
					return err
				}
			}
			for _, w := range words {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "print this file's entries, normalised, instead of the built-in list")
	return cmd
}
