package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mariner3d/marinerctl/api"
	"github.com/mariner3d/marinerctl/internal/config"
	"github.com/mariner3d/marinerctl/internal/util"
	"github.com/mariner3d/marinerctl/pkg/discovery"
	"github.com/mariner3d/marinerctl/pkg/fileInfo"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatusCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the print status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			st, err := client.PrintStatus(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "State: %s\n", string(st.State))
			if st.State == api.StateIdle {
				return nil
			}
			if st.SelectedFile != "" {
				fmt.Fprintf(w, "File:  %s\n", st.SelectedFile)
			}
			parts := []string{fmt.Sprintf("%.0f%%", st.Progress)}
			if st.TimeLeftSecs != nil {
				parts = append(parts, util.FormatDuration(*st.TimeLeftSecs)+" left")
			}
			if st.CurrentLayer != nil && st.LayerCount != nil {
				parts = append(parts, fmt.Sprintf("%d/%d layers", *st.CurrentLayer, *st.LayerCount))
			}
			fmt.Fprintln(w, strings.Join(parts, "   "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status as JSON")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var showHidden bool
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List files on the printer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			path := opts.cfg.Browser.StartPath
			if len(args) == 1 {
				path = args[0]
			}
			list, err := client.ListFiles(cmd.Context(), util.NormalizeDir(path))
			if err != nil {
				return err
			}

			showHidden = showHidden || opts.cfg.Browser.ShowHidden
			w := cmd.OutOrStdout()
			for _, d := range list.Directories {
				if showHidden || !util.IsHidden(d.Dirname) {
					fmt.Fprintln(w, d.Dirname+"/")
				}
			}
			for _, f := range list.Files {
				if !showHidden && util.IsHidden(f.Filename) {
					continue
				}
				printTime := "-"
				if f.PrintTimeSecs != nil {
					printTime = util.FormatDuration(*f.PrintTimeSecs)
				}
				fmt.Fprintf(w, "%s %s\n", util.PadRight(f.Filename, 40), printTime)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showHidden, "all", "a", false, "Include hidden entries")
	return cmd
}

func newDetailsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "details <file>",
		Short: "Show the details of a sliced file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			d, err := client.FileDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := [][2]string{
				{"Print Time", util.FormatDuration(d.PrintTimeSecs)},
				{"Height", util.FormatMillimetres(d.HeightMM)},
				{"Layer Count", strconv.Itoa(d.LayerCount)},
				{"Layer Height", util.FormatMillimetres(d.LayerHeightMM)},
				{"Resolution", util.JoinValues(d.Resolution[:], strconv.Itoa)},
				{"Bed Size", util.JoinValues(d.BedSizeMM[:], util.FormatMillimetres)},
				{"Preview", client.PreviewURL(d.Path)},
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, d.Filename)
			for _, r := range rows {
				fmt.Fprintf(w, "  %s %s\n", util.PadRight(r[0], 14), r[1])
			}
			return nil
		},
	}
}

func newPreviewCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Download the preview image of a sliced file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			preview, err := client.FilePreview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				base := filepath.Base(args[0])
				output = strings.TrimSuffix(base, filepath.Ext(base)) + preview.Ext
			}
			if err := os.WriteFile(output, preview.Data, 0644); err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s preview to %s (%s)\n", preview.MimeType, output, util.FormatSize(int64(len(preview.Data))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <file>.<image ext>)")
	return cmd
}

func newPrintCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print <file>",
		Short: "Start printing a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			if _, err := client.StartPrint(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started printing %s\n", args[0])
			return nil
		},
	}
}

type printerCommand func(*api.Client, context.Context) (*api.CommandResponse, error)

func newPrinterCommandCmd(opts *options, name, short string, send printerCommand) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			if _, err := send(client, cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", name)
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a file from the printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			if _, err := client.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newUploadCmd(opts *options) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "upload <local-file>",
		Short: "Upload a sliced file to the printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := fileInfo.CreateNode(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if !util.HasExtension(node.Name, opts.cfg.Printer.UploadExtensions) {
				return fmt.Errorf("unsupported file type %s (supported: %s)", node.Name, strings.Join(opts.cfg.Printer.UploadExtensions, ", "))
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Uploading %s (%s, %s)\n", node.Name, util.FormatSize(node.Size), node.MimeType)
			if verify {
				sum, err := node.CalcChecksum()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "sha256 %s\n", sum)
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			_, err = client.UploadFile(cmd.Context(), node.Path, func(loaded, total int64) {
				fmt.Fprintf(errOut, "\r%s / %s", util.FormatSize(loaded), util.FormatSize(total))
			})
			fmt.Fprintln(errOut)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Uploaded %s\n", node.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "checksum", false, "Print the SHA-256 of the file before uploading")
	return cmd
}

func newDiscoverCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find mariner servers on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := opts.cfg.Discovery
			service := discovery.ServiceName(d.ServiceType, d.Domain)
			services, err := discovery.Browse(cmd.Context(), &discovery.MDNSAdapter{}, service, d.Timeout)
			if err != nil {
				return fmt.Errorf("failed to browse for %s: %w", service, err)
			}

			w := cmd.OutOrStdout()
			if len(services) == 0 {
				fmt.Fprintf(w, "No servers found for %s\n", service)
				return nil
			}
			for _, s := range services {
				fmt.Fprintf(w, "%s %s\n", util.PadRight(s.Name, 30), s.URL())
			}
			return nil
		},
	}
}

func newAnnounceCmd(opts *options) *cobra.Command {
	var name string
	var port int
	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Advertise a mariner server over mDNS until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := opts.cfg.Discovery
			if name == "" {
				name = opts.cfg.Printer.DisplayName
			}
			if name == "" {
				name = "mariner"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Announcing %q on port %d, press ctrl+c to stop\n", name, port)
			adapter := &discovery.MDNSAdapter{}
			return adapter.Announce(cmd.Context(), discovery.ServiceInfo{
				Name:   name,
				Type:   d.ServiceType,
				Domain: d.Domain,
				Port:   port,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Instance name (default: printer display name)")
	cmd.Flags().IntVar(&port, "port", 5000, "Port the server listens on")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(opts.cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "init [path]",
			Short: "Write the default configuration",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := config.SearchPaths()[0]
				if len(args) == 1 {
					path = args[0]
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.Default().Save(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			},
		},
	)
	return cmd
}
