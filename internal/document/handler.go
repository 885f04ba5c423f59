package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"techdocs/internal/document/model"
	"techdocs/internal/document/service"
	"techdocs/pkg/printer"
	"techdocs/router"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type DocumentHandler struct {
	Service *service.DocumentService
	Printer *printer.Printer
}

func NewDocumentHandler(service *service.DocumentService, p *printer.Printer) *DocumentHandler {
	return &DocumentHandler{Service: service, Printer: p}
}

func (h *DocumentHandler) Command() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:         "documents",
		Aliases:     []string{"docs"},
		Short:       "Manage technical documents",
		Annotations: map[string]string{router.RouteAnnotation: router.DocumentsPath},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := printer.ValidFormat(output); err != nil {
				return h.Printer.Fail("Invalid output format", err)
			}
			// Chained explicitly: cobra only runs the nearest persistent hook.
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				return root.PersistentPreRunE(cmd, args)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", printer.FormatTable, "output format: table, json or yaml")

	cmd.AddCommand(
		h.listCommand(&output),
		h.getCommand(&output),
		h.createCommand(&output),
		h.updateCommand(&output),
		h.deleteCommand(),
	)
	return cmd
}

func (h *DocumentHandler) listCommand(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := h.Service.FetchAll(cmd.Context())
			if err != nil {
				return h.Printer.Fail("Failed to list documents", err)
			}
			return h.Printer.Render(*output, docs, func(w io.Writer) {
				printer.Row(w, "ID", "TITLE", "CATEGORY", "SERVICE", "TAGS", "PUBLISHED", "UPDATED")
				for _, d := range docs {
					printer.Row(w, d.ID, d.Title, dash(d.Category), serviceColumn(d.ServiceID), tagsColumn(d.Tags), d.IsPublished, timeColumn(d.UpdatedAt))
				}
			})
		},
	}
}

func (h *DocumentHandler) getCommand(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := h.Service.FetchByID(cmd.Context(), args[0])
			if err != nil {
				return h.Printer.Fail("Failed to fetch document", err)
			}
			return h.renderDocument(*output, doc)
		},
	}
}

// documentFlags are the field overrides shared by create and update.
type documentFlags struct {
	file      string
	title     string
	content   string
	category  string
	tags      []string
	serviceID string
	publish   bool
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read the document from a JSON or YAML file (- for stdin)")
	cmd.Flags().StringVar(&f.title, "title", "", "document title")
	cmd.Flags().StringVar(&f.content, "content", "", "document body")
	cmd.Flags().StringVar(&f.category, "category", "", "document category")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag name, repeatable")
	cmd.Flags().StringVar(&f.serviceID, "service-id", "", "numeric service ID, empty or 0 to clear")
	cmd.Flags().BoolVar(&f.publish, "published", false, "mark the document as published")
}

// apply overlays every flag the user set on in.
func (f *documentFlags) apply(cmd *cobra.Command, in *model.DocumentInput) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title = f.title
	}
	if flags.Changed("content") {
		in.Content = f.content
	}
	if flags.Changed("category") {
		in.Category = f.category
	}
	if flags.Changed("tag") {
		in.Tags = make([]model.TagInput, len(f.tags))
		for i, t := range f.tags {
			in.Tags[i] = model.TagName(t)
		}
	}
	if flags.Changed("service-id") {
		in.ServiceID = model.ServiceIDFromString(f.serviceID)
	}
	if flags.Changed("published") {
		in.IsPublished = f.publish
	}
}

func (h *DocumentHandler) createCommand(output *string) *cobra.Command {
	var f documentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document from a file or flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.DocumentInput
			if f.file != "" {
				var err error
				if in, err = readInput(cmd, f.file); err != nil {
					return h.Printer.Fail("Failed to read document", err)
				}
			}
			f.apply(cmd, &in)

			doc, err := h.Service.Create(cmd.Context(), in)
			if err != nil {
				return h.Printer.Fail("Failed to create document", err)
			}
			h.Printer.Success("Created document %d", doc.ID)
			return h.renderDocument(*output, doc)
		},
	}
	f.register(cmd)
	return cmd
}

func (h *DocumentHandler) updateCommand(output *string) *cobra.Command {
	var f documentFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a document; flags alone edit the current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return h.Printer.Fail("Failed to update document", err)
			}

			var in model.DocumentInput
			if f.file != "" {
				if in, err = readInput(cmd, f.file); err != nil {
					return h.Printer.Fail("Failed to read document", err)
				}
			} else {
				current, err := h.Service.FetchByID(cmd.Context(), args[0])
				if err != nil {
					return h.Printer.Fail("Failed to fetch document", err)
				}
				in = model.InputFrom(*current)
			}
			in.ID = id
			f.apply(cmd, &in)

			doc, err := h.Service.Update(cmd.Context(), in)
			if err != nil {
				return h.Printer.Fail("Failed to update document", err)
			}
			h.Printer.Success("Updated document %d (version %d)", doc.ID, doc.Version)
			return h.renderDocument(*output, doc)
		},
	}
	f.register(cmd)
	return cmd
}

func (h *DocumentHandler) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return h.Printer.Fail("Failed to delete document", err)
			}
			if err := h.Service.Delete(cmd.Context(), id); err != nil {
				return h.Printer.Fail("Failed to delete document", err)
			}
			h.Printer.Success("Deleted document %d", id)
			return nil
		},
	}
}

func (h *DocumentHandler) renderDocument(output string, d *model.Document) error {
	return h.Printer.Render(output, d, func(w io.Writer) {
		printer.Row(w, "ID", d.ID)
		printer.Row(w, "TITLE", d.Title)
		printer.Row(w, "CATEGORY", dash(d.Category))
		printer.Row(w, "SERVICE", serviceColumn(d.ServiceID))
		printer.Row(w, "TAGS", tagsColumn(d.Tags))
		printer.Row(w, "PUBLISHED", d.IsPublished)
		printer.Row(w, "VERSION", d.Version)
		printer.Row(w, "UPDATED", timeColumn(d.UpdatedAt))
		if d.Content != "" {
			printer.Row(w, "CONTENT", strings.ReplaceAll(d.Content, "\n", " "))
		}
	})
}

// readInput decodes a document file. JSON is picked by extension or by a
// leading brace; everything else is read as YAML.
func readInput(cmd *cobra.Command, name string) (model.DocumentInput, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return model.DocumentInput{}, err
	}

	var in model.DocumentInput
	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(name), ".json") || bytes.HasPrefix(trimmed, []byte("{")) {
		if err := json.Unmarshal(trimmed, &in); err != nil {
			return model.DocumentInput{}, fmt.Errorf("decode %s: %w", name, err)
		}
		return in, nil
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return model.DocumentInput{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return in, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func serviceColumn(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func tagsColumn(tags []model.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ",")
}

func timeColumn(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
