package tiler

type ITiler interface {
	RunTiler(opts *ScatterOptions) error
}
