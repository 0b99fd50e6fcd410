package margin

import (
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/margin/internal/core/command"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/selection"
	"github.com/colonyops/margin/internal/core/viewinfo"
)

// Options configures a Section. Behavior and Transport are required.
type Options struct {
	Behavior  doctype.Behavior
	Converter geom.Converter
	Layout    layout.Settings

	// Deflection is the selected thread offset used until the first
	// viewport arrives. DeflectionCollapsed and DeflectionExpanded replace
	// it once the collapse state is known.
	Deflection          int
	DeflectionCollapsed int
	DeflectionExpanded  int
	Debounce            time.Duration

	LocalUser          string
	FileBasedView      bool
	Mobile             bool
	ShowResolved       bool
	ShowTrackedChanges bool
	RTL                bool

	Transport command.Transport
	Presenter conflict.Presenter
	Host      Host
	Measurer  layout.Measurer
	Scroller  selection.Scroller
	Popup     selection.Popup
	Bus       *eventbus.EventBus
	Views     *viewinfo.Registry
	// CellRect resolves spreadsheet cell ranges to twips rectangles.
	CellRect func(cellRange string) (geom.Rect, bool)
}

// OptionsFromConfig fills the document and layout options from cfg. The
// collaborators (Transport, Host, Bus and so on) are left to the caller.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	kind, err := cfg.Document.Kind()
	if err != nil {
		return Options{}, fmt.Errorf("document type: %w", err)
	}
	behavior, err := doctype.For(kind)
	if err != nil {
		return Options{}, err
	}
	policy, err := conflict.ParsePolicy(cfg.Conflict.Policy)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Behavior:            behavior,
		Converter:           cfg.Document.Converter(),
		Layout:              cfg.Layout.Settings(),
		Deflection:          cfg.Layout.Deflection,
		DeflectionCollapsed: cfg.Layout.DeflectionCollapsed,
		DeflectionExpanded:  cfg.Layout.DeflectionExpanded,
		Debounce:            cfg.Layout.Debounce,
		LocalUser:           cfg.User.Name,
		FileBasedView:       cfg.Document.FileBasedView,
		Mobile:              cfg.Document.Mobile,
		ShowResolved:        cfg.Document.ShowResolved,
		ShowTrackedChanges:  cfg.Document.ShowTrackedChanges,
		RTL:                 cfg.Document.RTL,
		Presenter:           conflict.PolicyPresenter{Policy: policy},
	}, nil
}

func (o *Options) applyDefaults() error {
	if o.Behavior == nil {
		return errors.New("margin: behavior is required")
	}
	if o.Transport == nil {
		return errors.New("margin: transport is required")
	}

	if o.Converter.TileTwips == 0 {
		o.Converter = geom.NewConverter(0, 0, 0)
	}
	if o.Layout == (layout.Settings{}) {
		o.Layout = layout.DefaultSettings()
	}
	if o.Debounce <= 0 {
		o.Debounce = 10 * time.Millisecond
	}
	if o.Presenter == nil {
		o.Presenter = conflict.PolicyPresenter{Policy: conflict.PolicyPrompt}
	}
	if o.Host == nil {
		o.Host = NewMemoryHost()
	}
	if o.Measurer == nil {
		minHeight := o.Layout.MinHeight
		width := o.Layout.CommentWidth
		o.Measurer = layout.MeasureFunc(func(string) layout.Metrics {
			return layout.Metrics{Height: minHeight, Width: width, ContentHeight: minHeight}
		})
	}
	return nil
}
