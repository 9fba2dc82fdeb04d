package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/volcano-authors/vbuild/internal/config"
	"github.com/volcano-authors/vbuild/internal/fetch"
	"github.com/volcano-authors/vbuild/internal/output"
	"github.com/volcano-authors/vbuild/internal/utils"
	"github.com/volcano-authors/vbuild/internal/workspace"
)

func newFetchCmd() *cobra.Command {
	var (
		dest           string
		noResume       bool
		assumeYes      bool
		secure         bool
		proxyURL       string
		userAgent      string
		headers        []string
		token          string
		s3Profile      string
		promptExisting bool
	)

	cmd := &cobra.Command{
		Use:   "fetch MANIFEST [flags]",
		Short: "Download and verify the archives listed in a YAML manifest",
		Long: "Download every file in MANIFEST, resuming partial files and checking length and digests.\n" +
			"Files land in --dest, the manifest's dest setting, or the parent of the enclosing git checkout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := config.Load(args[0])
			if err != nil {
				return err
			}
			settings := m.Settings
			if secure {
				verify := false
				settings.Insecure = &verify
			}
			if proxyURL != "" {
				settings.Proxy, settings.ProxyUsername, settings.ProxyPassword = splitProxyAuth(proxyURL)
			}
			if userAgent != "" {
				settings.UserAgent = userAgent
			}
			if len(headers) > 0 {
				merged := make(map[string]string, len(settings.Headers)+len(headers))
				for k, v := range settings.Headers {
					merged[k] = v
				}
				for k, v := range utils.ParseHeaderArgs(headers) {
					merged[k] = v
				}
				settings.Headers = merged
			}
			if token != "" {
				settings.Token = token
			}
			if s3Profile != "" {
				settings.S3Profile = s3Profile
			}
			if promptExisting {
				settings.PromptOnExistingMismatch = true
			}

			target, err := installDir(dest, settings.Dest)
			if err != nil {
				return err
			}
			files, err := m.Resolve(target)
			if err != nil {
				return err
			}

			httpSource := fetch.NewHTTPSource(settings.HTTPConfig())
			sources := fetch.MultiSource{"http": httpSource, "https": httpSource}
			if m.NeedsS3() {
				s3Source, err := fetch.NewS3Source(cmd.Context(), settings.S3Profile)
				if err != nil {
					return err
				}
				sources["s3"] = s3Source
			}

			dl := fetch.NewDownloader(sources)
			dl.Progress = output.NewProgressLine(os.Stderr)
			dl.PromptOnExistingMismatch = settings.PromptOnExistingMismatch
			if assumeYes {
				dl.Decide = fetch.AlwaysContinue
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				output.FHeader(fmt.Sprintf("Fetching %d files", len(files))),
				output.FInfo(output.StyleSymbols["arrow"]+" "+target))
			results, err := dl.DownloadBatch(cmd.Context(), files, !noResume)
			summary := output.NewSummary(len(files))
			for _, r := range results {
				summary.Add(filepath.Base(r.Descriptor.Local), r.Outcome.String(), r.Err)
			}
			summary.Render(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Directory relative local paths resolve against")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Discard partial files instead of resuming them")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Keep files that fail verification without asking")
	cmd.Flags().BoolVar(&secure, "secure", false, "Verify TLS certificates and hostnames")
	cmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., user:pass@proxy.example.com:8080)")
	cmd.Flags().StringVarP(&userAgent, "user-agent", "a", "", "User agent")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'X-Mirror: eu'); can be specified multiple times")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for private mirrors")
	cmd.Flags().StringVar(&s3Profile, "s3-profile", "", "AWS shared config profile for s3:// files")
	cmd.Flags().BoolVar(&promptExisting, "prompt-existing", false, "Ask before keeping a complete local file whose digests differ")
	return cmd
}

// splitProxyAuth moves credentials embedded in a proxy URL into separate fields.
func splitProxyAuth(proxyURL string) (string, string, string) {
	parsed, err := u.Parse(proxyURL)
	if err != nil || parsed.User == nil {
		return proxyURL, "", ""
	}
	username := parsed.User.Username()
	password, _ := parsed.User.Password()
	parsed.User = nil
	return parsed.String(), username, password
}

func installDir(flagDest, settingsDest string) (string, error) {
	switch {
	case flagDest != "":
		return flagDest, nil
	case settingsDest != "":
		return settingsDest, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return workspace.DefaultInstallDir(wd), nil
}
