package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mwolter/assetdump/pkg/object"
	"github.com/mwolter/assetdump/pkg/store"
)

// inspectCommand creates the inspect command for browsing package contents.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		storeDir        string
		mongoURI        string
		mongoDatabase   string
		mongoCollection string
		file            int64
		interactive     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Browse the objects inside a package",
		Long: `Browse the objects inside a package.

The inspect command loads the package for --file and lists its objects with
their class IDs, type names, and pointer counts. Use it to find a root class
ID or to work out which "Type.field" entries a dump profile needs.

With --interactive an object can be picked from a list; inspect then prints
the dump command for it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), inspectOpts{
				storeDir:        storeDir,
				mongoURI:        mongoURI,
				mongoDatabase:   mongoDatabase,
				mongoCollection: mongoCollection,
				file:            file,
				interactive:     interactive,
			})
		},
	}

	cmd.Flags().StringVarP(&storeDir, "store", "s", "", "directory of <fileID>.json packages")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string (alternative to --store)")
	cmd.Flags().StringVar(&mongoDatabase, "mongo-db", "", "MongoDB database name")
	cmd.Flags().StringVar(&mongoCollection, "mongo-collection", "", "MongoDB collection holding packages")
	cmd.Flags().Int64Var(&file, "file", 0, "file ID of the package to inspect")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick an object from a list")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type inspectOpts struct {
	storeDir        string
	mongoURI        string
	mongoDatabase   string
	mongoCollection string
	file            int64
	interactive     bool
}

// newLoader builds a package loader from store flags. The returned close
// function is a no-op for directory stores.
func newLoader(ctx context.Context, storeDir, mongoURI, mongoDatabase, mongoCollection string) (store.PackageLoader, func(), error) {
	if storeDir != "" {
		loader, err := store.NewDirStore(storeDir)
		if err != nil {
			return nil, nil, err
		}
		return loader, func() {}, nil
	}
	if mongoURI != "" {
		loader, err := store.NewMongoStore(ctx, mongoURI, mongoDatabase, mongoCollection)
		if err != nil {
			return nil, nil, err
		}
		return loader, func() { _ = loader.Close(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("a package store is required: set --store or --mongo-uri")
}

// runInspect loads the package and lists or picks its objects.
func (c *CLI) runInspect(ctx context.Context, opts inspectOpts) error {
	loader, closeLoader, err := newLoader(ctx, opts.storeDir, opts.mongoURI, opts.mongoDatabase, opts.mongoCollection)
	if err != nil {
		return err
	}
	defer closeLoader()

	prog := newProgress(c.Logger)
	data, err := loader.LoadPackage(ctx, opts.file)
	if err != nil {
		return err
	}
	pkg, err := store.DecodePackage(data)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %d objects from file %d", pkg.Len(), opts.file))

	rows := buildObjectRows(pkg)

	if opts.interactive {
		return c.pickObject(opts, rows)
	}

	printKeyValue("Source", loader.Source())
	printKeyValue("File", fmt.Sprintf("%d", opts.file))
	printKeyValue("Objects", fmt.Sprintf("%d", pkg.Len()))
	printNewline()
	for _, row := range rows {
		marker := " "
		if row.Root {
			marker = "*"
		}
		printDetail("%s %6d  %-24s %d fields, %d pointers", marker, row.Class, row.Type, row.Fields, row.Pointers)
	}
	printNewline()
	printDetail("* declared root")

	return nil
}

// pickObject runs the interactive picker and prints the matching dump command.
func (c *CLI) pickObject(opts inspectOpts, rows []objectRow) error {
	m := NewObjectListModel(opts.file, rows)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(ObjectListModel)
	if !ok || fm.Selected == nil {
		printInfo("No object selected")
		return nil
	}

	row := fm.Selected.Row
	printSuccess("Selected %s (class %d)", row.Type, row.Class)
	printNewline()

	storeArg := "--store " + opts.storeDir
	if opts.storeDir == "" {
		storeArg = "--mongo-uri " + opts.mongoURI
	}
	printNextStep("Dump", fmt.Sprintf("%s dump %s --file %d --root %d --fields %s.<field>",
		appName, storeArg, opts.file, row.Class, row.Type))

	return nil
}

// buildObjectRows summarizes each object in the package for display.
func buildObjectRows(pkg *store.Package) []objectRow {
	roots := make(map[int64]bool)
	for _, id := range pkg.Classes() {
		node, _ := pkg.Object(id)
		for _, r := range pkg.Roots() {
			if r == node {
				roots[id] = true
			}
		}
	}

	rows := make([]objectRow, 0, pkg.Len())
	for _, id := range pkg.Classes() {
		node, _ := pkg.Object(id)
		fields := node.Fields()

		pointers := 0
		for _, f := range fields {
			if _, ok := f.Value.(object.Pointer); ok {
				pointers++
			}
		}

		rows = append(rows, objectRow{
			Class:    id,
			Type:     node.TypeName(),
			Fields:   len(fields),
			Pointers: pointers,
			Root:     roots[id],
		})
	}
	return rows
}
