package tree

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// ParseFormat maps a file extension to a graphviz output format.
func ParseFormat(name string) (graphviz.Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "png":
		return graphviz.PNG, nil
	case "svg":
		return graphviz.SVG, nil
	case "jpg", "jpeg":
		return graphviz.JPG, nil
	case "dot":
		return graphviz.XDOT, nil
	default:
		return "", errors.NewValidationError("format", "must be one of png, svg, jpg, dot", name)
	}
}

// Render draws the tree rooted at root in the given format. Internal nodes
// show their question; leaves are boxes. The first edge out of a node leads
// to the false branch. A panic inside graphviz is returned as an error.
func Render(root *Node, format graphviz.Format, w io.Writer) error {
	return errors.SafeExecute("tree.Render", func() error {
		g := graphviz.New()
		defer g.Close()
		graph, err := g.Graph()
		if err != nil {
			return errors.Wrap(err, "create graph")
		}
		defer graph.Close()

		ids := 0
		if err := draw(graph, root, nil, &ids); err != nil {
			return err
		}
		return errors.Wrap(g.Render(graph, format, w), "render graph")
	})
}

// RenderFile renders the tree into path.
func RenderFile(root *Node, format graphviz.Format, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Render(root, format, f)
}

func draw(g *cgraph.Graph, n *Node, parent *cgraph.Node, ids *int) error {
	if n == nil {
		return errors.NewInvariantViolation("render of a nil node")
	}
	current, err := g.CreateNode(fmt.Sprint(*ids))
	if err != nil {
		return errors.Wrap(err, "create node")
	}
	*ids++

	if parent != nil {
		if _, err := g.CreateEdge("", parent, current); err != nil {
			return errors.Wrap(err, "create edge")
		}
	}

	if n.IsLeaf() {
		current.Set("label", fmt.Sprintf("%s\nsamples = %d", n.Leaf, n.Samples))
		current.Set("shape", "box")
		return nil
	}
	current.Set("label", fmt.Sprintf("%s\ngain = %.4g\nsamples = %d", n.Question, n.Gain, n.Samples))
	if err := draw(g, n.Left, current, ids); err != nil {
		return err
	}
	return draw(g, n.Right, current, ids)
}
