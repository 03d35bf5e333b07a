// Command epubinfo prints the structure of an EPUB 2 book and checks it.
//
// Usage:
//
//	epubinfo [--show <entry>]... <epub-file>
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yuanying/html2epub/internal/epub"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "epubinfo <epub-file>",
		Short:        "Print structure of an EPUB book and verify it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			show, _ := cmd.Flags().GetStringArray("show")

			r, err := epub.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open EPUB: %w", err)
			}
			defer r.Close()

			return printInfo(cmd.OutOrStdout(), r, show)
		},
	}
	cmd.Flags().StringArrayP("show", "s", nil, "Print content of an archive entry (repeatable)")
	return cmd
}

// printInfo writes entries, metadata, manifest, spine and navigation of r to
// w followed by the verification result. A book with problems yields
// epub.ErrInvalidBook.
func printInfo(w io.Writer, r *epub.Reader, show []string) error {
	fmt.Fprintf(w, "OPF Path: %s\n", r.OPFPath())

	entries := r.Entries()
	fmt.Fprintf(w, "\n--- Entries (%d) ---\n", len(entries))
	for i, name := range entries {
		fmt.Fprintf(w, "%3d. %s\n", i+1, name)
	}

	rep, err := epub.Verify(r)
	if err != nil {
		return err
	}
	opf := rep.Package

	fmt.Fprintln(w, "\n--- Metadata ---")
	fmt.Fprintf(w, "Title:       %s\n", opf.Metadata.Title)
	fmt.Fprintf(w, "Language:    %s\n", opf.Metadata.Language)
	fmt.Fprintf(w, "Identifier:  %s\n", opf.Metadata.Identifier)
	if opf.Metadata.Date != "" {
		fmt.Fprintf(w, "Date:        %s\n", opf.Metadata.Date)
	}
	for i, c := range opf.Metadata.Creators {
		role := c.Role
		if role == "" {
			role = "unknown"
		}
		fmt.Fprintf(w, "Creator %d:   %s (file-as: %s, role: %s)\n", i+1, c.Name, c.FileAs, role)
	}
	if rep.Cover != nil {
		fmt.Fprintf(w, "Cover:       %s (%s)\n", rep.Cover.Href, rep.Cover.DetectionMethod)
	} else {
		fmt.Fprintln(w, "Cover:       (not found)")
	}

	fmt.Fprintf(w, "\n--- Manifest (%d) ---\n", len(opf.ManifestOrder))
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		fmt.Fprintf(w, "  %-16s %-28s %s\n", id, item.MediaType, item.Href)
	}

	mediaTypes := make(map[string]int)
	for _, item := range opf.Manifest {
		mediaTypes[item.MediaType]++
	}
	types := make([]string, 0, len(mediaTypes))
	for t := range mediaTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Fprintln(w, "Items by media type:")
	for _, t := range types {
		fmt.Fprintf(w, "  %s: %d\n", t, mediaTypes[t])
	}

	fmt.Fprintf(w, "\n--- Spine (%d) ---\n", len(opf.Spine))
	for i, ref := range opf.Spine {
		fmt.Fprintf(w, "%3d. %s\n", i+1, ref.IDRef)
	}

	if ncx := rep.Navigation; ncx != nil {
		fmt.Fprintf(w, "\n--- Navigation (%d) ---\n", len(ncx.NavPoints))
		fmt.Fprintf(w, "UID:         %s\n", ncx.UID)
		fmt.Fprintf(w, "Title:       %s\n", ncx.DocTitle)
		for _, np := range ncx.NavPoints {
			fmt.Fprintf(w, "%3d. %s -> %s [%s]\n", np.PlayOrder, np.Label, np.Src, np.ID)
		}
	}

	for _, name := range show {
		data, err := r.ReadFile(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n--- %s (%d bytes) ---\n%s\n", name, len(data), data)
	}

	fmt.Fprintln(w)
	if rep.Valid() {
		fmt.Fprintln(w, "✓ No problems found")
		return nil
	}
	fmt.Fprintf(w, "✗ %d problem(s):\n", len(rep.Problems))
	for _, p := range rep.Problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return rep.Err()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, epub.ErrInvalidBook) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
