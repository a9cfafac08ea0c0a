package model

// ProjectItem holds exactly one of a request or a folder.
type ProjectItem struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Request *Request `json:"request,omitempty" yaml:"request,omitempty"`
	Folder  *Folder  `json:"folder,omitempty" yaml:"folder,omitempty"`
}

type Folder struct {
	ID    string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string        `json:"name,omitempty" yaml:"name,omitempty"`
	Items []ProjectItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// Project is a tree of requests and folders executed by the runners.
type Project struct {
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Items     []ProjectItem     `json:"items,omitempty" yaml:"items,omitempty"`
}

// Walk visits every request in the tree in document order.
func (p *Project) Walk(visit func(folderID string, req *Request)) {
	if p == nil {
		return
	}
	walkItems(p.ID, p.Items, visit)
}

func walkItems(folderID string, items []ProjectItem, visit func(string, *Request)) {
	for i := range items {
		item := items[i]
		switch {
		case item.Request != nil:
			visit(folderID, item.Request)
		case item.Folder != nil:
			id := item.Folder.ID
			if id == "" {
				id = item.Folder.Name
			}
			walkItems(id, item.Folder.Items, visit)
		}
	}
}
