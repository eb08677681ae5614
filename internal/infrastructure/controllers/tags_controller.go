package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// TagsController handles the "tags" subcommand.
type TagsController struct {
	command commands.Tags
}

var _ entities.Controller = (*TagsController)(nil)

// NewTagsController creates a new TagsController.
func NewTagsController(command commands.Tags) *TagsController {
	return &TagsController{command: command}
}

// GetBind returns the Cobra command metadata for the tags controller.
func (it *TagsController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "tags",
		Short: "List release tags",
		Long: `List the release tags of the repository, newest version first.
Tags in every supported format are decoded; other tags are ignored.`,
	}
}

// AddFlags adds the tags-specific flags to the given Cobra command.
func (it *TagsController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("cwd", ".", "Any directory inside the repository")
	cmd.Flags().String("name", "", "Only show the latest release of this package")
	cmd.Flags().String("ref", "", "Only show tags pointing at this revision")
	cmd.Flags().Bool("json", false, "Print tags as JSON")
}

// Execute prints the tags.
func (it *TagsController) Execute(cmd *cobra.Command, _ []string) error {
	cwd, _ := cmd.Flags().GetString("cwd")
	name, _ := cmd.Flags().GetString("name")
	ref, _ := cmd.Flags().GetString("ref")
	asJSON, _ := cmd.Flags().GetBool("json")

	tags, err := it.command.Execute(context.Background(), commands.TagsOptions{Cwd: cwd, Name: name, Ref: ref})
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tags)
	}

	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(writer, "NAME\tVERSION\tFORMAT\tTAG")
	for _, tag := range tags {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", tag.Name, tag.Version, tag.Format, tag.Ref)
	}
	return writer.Flush()
}
