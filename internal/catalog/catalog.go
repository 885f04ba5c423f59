// Package catalog lists the external systems a document can be filed under.
// The set is fixed and never fetched.
package catalog

import "errors"

var ErrUnknownService = errors.New("unknown service")

type Service struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

var services = []Service{
	{ID: "crmconnector", Name: "Crm Connector"},
	{ID: "asterisk", Name: "Asterisk"},
	{ID: "omnichannel", Name: "Omnichannel"},
	{ID: "clickhouse", Name: "Clickhouse"},
}

// List returns the catalog in its fixed order. Callers own the returned slice.
func List() []Service {
	return append([]Service(nil), services...)
}

func Get(id string) (Service, error) {
	for _, s := range services {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, ErrUnknownService
}
