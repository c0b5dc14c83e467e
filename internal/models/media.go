package models

// MediaFile is an upload staged on local disk, owned by whoever receives it.
type MediaFile struct {
	Path     string
	Filename string
	Size     int64
}
