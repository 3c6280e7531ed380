// cvctl drives the full optimization pipeline from the command line:
// upload a resume, poll until processing finishes, review the suggested
// sections, generate the documents, and download them.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devhub/cv-optimizer/internal/client"
)

func main() {
	var (
		server     = flag.String("server", "http://localhost:8080", "cv-optimizer server base URL")
		token      = flag.String("token", "", "bearer session token (omit when the server runs without auth)")
		file       = flag.String("file", "", "resume file to upload (.pdf or .docx)")
		outDir     = flag.String("out", ".", "directory for downloaded documents")
		approveAll = flag.Bool("approve-all", false, "approve every suggested section without prompting")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: cvctl -file resume.pdf [-server URL] [-approve-all]")
		os.Exit(2)
	}

	ctx := context.Background()
	api := client.New(*server, *token)

	if err := run(ctx, api, *file, *outDir, *approveAll); err != nil {
		switch {
		case client.IsValidation(err):
			fmt.Fprintln(os.Stderr, "rejected:", err)
		case errors.Is(err, client.ErrUnauthorized):
			fmt.Fprintln(os.Stderr, "session expired: please log in again")
		case errors.Is(err, client.ErrProcessingFailed):
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "processing failed; re-run cvctl to start over with a new upload")
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, api *client.Client, file, outDir string, approveAll bool) error {
	cvID, err := api.Upload(ctx, file)
	if err != nil {
		return err
	}
	fmt.Println("uploaded, cv id:", cvID)

	poller := client.NewPoller(api)
	session := poller.Start(ctx, cvID, func(st client.Status) {
		fmt.Printf("status: %s (%d%%)\n", st.Status, st.ProgressPercentage)
	})
	if _, err := session.Wait(); err != nil {
		return err
	}

	improvements, err := api.GetImprovements(ctx, cvID)
	if err != nil {
		return err
	}
	fmt.Printf("processing complete, %d sections to review\n", len(improvements.Sections))

	review := client.NewReviewSession(api, cvID, improvements.Sections)
	if err := reviewSections(ctx, review, approveAll); err != nil {
		return err
	}

	result, err := review.Generate(ctx)
	if err != nil {
		return err
	}
	fmt.Println("docx:", result.DocxURL)

	docxPath := filepath.Join(outDir, fmt.Sprintf("cv-%s.docx", cvID))
	if err := api.Download(ctx, cvID, "docx", docxPath); err != nil {
		return err
	}
	fmt.Println("saved", docxPath)

	// PDF is optional: its absence is partial success, not an error
	if result.PDFURL == nil {
		fmt.Println("pdf: not available (converter offline), DOCX only")
		return nil
	}
	pdfPath := filepath.Join(outDir, fmt.Sprintf("cv-%s.pdf", cvID))
	if err := api.Download(ctx, cvID, "pdf", pdfPath); err != nil {
		return err
	}
	fmt.Println("saved", pdfPath)
	return nil
}

func reviewSections(ctx context.Context, review *client.ReviewSession, approveAll bool) error {
	reader := bufio.NewReader(os.Stdin)

	for _, section := range review.Sections() {
		if approveAll {
			if err := review.Approve(ctx, section.ID); err != nil {
				return err
			}
			continue
		}

		fmt.Printf("\n[%s #%d]\n%s\n", section.Type, section.Index, section.Improved)
		fmt.Print("approve / edit / reject [a|e|r]: ")
		answer, _ := reader.ReadString('\n')

		switch strings.TrimSpace(answer) {
		case "e":
			fmt.Print("replacement text: ")
			text, _ := reader.ReadString('\n')
			if err := review.Edit(ctx, section.ID, strings.TrimSpace(text)); err != nil {
				return err
			}
		case "r":
			if err := review.Reject(ctx, section.ID); err != nil {
				return err
			}
		default:
			if err := review.Approve(ctx, section.ID); err != nil {
				return err
			}
		}
	}

	progress := review.Progress()
	fmt.Printf("reviewed: %d/%d (%d%%)\n", progress.ApprovedCount, progress.TotalCount, progress.ProgressPercentage)
	if !progress.AllReady {
		return fmt.Errorf("not all sections approved; rejected sections block generation")
	}
	return nil
}
