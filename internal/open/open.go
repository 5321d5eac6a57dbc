package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/layout"
)

// OpenDocument opens an export document in the browser named by $BROWSER,
// or the system default.
func OpenDocument(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("document not found: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cmd := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), abs)
	return cmd.Start()
}

// OpenExport opens a recorded export's document. With transcript set it opens
// the transcript copy in $EDITOR instead, at the line of hitMsgID when known.
func OpenExport(db *index.DB, exportID string, hitMsgID int, transcript bool) error {
	export, err := db.GetExport(exportID)
	if err != nil {
		return fmt.Errorf("get export: %w", err)
	}
	if export == nil {
		return fmt.Errorf("export not found: %s", exportID)
	}

	if !transcript {
		return OpenDocument(export.DocumentPath)
	}

	filePath := filepath.Join(export.OutputDir, layout.AttachmentsDir, filepath.Base(export.Transcript))
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := 1
	if hitMsgID >= 0 {
		msgs, err := db.GetMessages(export.ExportID)
		if err == nil {
			for _, m := range msgs {
				if m.MsgID == hitMsgID && m.LineNumber > 0 {
					lineNum = m.LineNumber
					break
				}
			}
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return openInEditor(editor, filePath, lineNum)
}

func browserCommand(goos, browser, target string) *exec.Cmd {
	if browser != "" {
		return exec.Command(browser, target)
	}
	switch goos {
	case "darwin":
		return exec.Command("open", target)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return exec.Command("xdg-open", target)
	}
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
