package blob

// NewWithAPI builds a Store on a stub client.
func NewWithAPI(c api, container string) *Store {
	return &Store{client: c, defaultContainer: container}
}

// API exposes the client contract to tests.
type API = api
