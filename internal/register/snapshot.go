package register

// RegisterView is a read-only copy of a loaded register tree.
type RegisterView struct {
	Path     string           `yaml:"path"`
	Remote   string           `yaml:"remote,omitempty"`
	Metadata RegisterMetadata `yaml:"metadata"`
	DataSets []DataSetView    `yaml:"datasets"`
}

type DataSetView struct {
	Name        string            `yaml:"name"`
	Metadata    DataSetMetadata   `yaml:"metadata"`
	Extension   ExtensionMetadata `yaml:"extension"`
	ItemClasses []ItemClassView   `yaml:"itemClasses"`
}

type ItemClassView struct {
	Name  string     `yaml:"name"`
	Items []ItemView `yaml:"items"`
}

type ItemView struct {
	ID           string     `yaml:"id"`
	Status       ItemStatus `yaml:"status"`
	DateAccepted JSTime     `yaml:"dateAccepted"`
	Data         any        `yaml:"data,omitempty"`
}

// Snapshot loads the whole tree and copies it into views sorted by name.
// Children already in memory are used as they are, including unsaved ones.
func (r *Register) Snapshot() (*RegisterView, error) {
	view := &RegisterView{
		Path:     r.path,
		Remote:   r.remoteURL,
		Metadata: r.Metadata,
	}

	dataSets, err := r.DataSets(false)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(dataSets) {
		dsView, err := dataSets[name].snapshot()
		if err != nil {
			return nil, err
		}
		view.DataSets = append(view.DataSets, dsView)
	}
	return view, nil
}

func (d *DataSet) snapshot() (DataSetView, error) {
	view := DataSetView{Name: d.name, Metadata: d.Metadata, Extension: d.Extension}
	classes, err := d.ItemClasses(false)
	if err != nil {
		return view, err
	}
	for _, name := range sortedKeys(classes) {
		icView, err := classes[name].snapshot()
		if err != nil {
			return view, err
		}
		view.ItemClasses = append(view.ItemClasses, icView)
	}
	return view, nil
}

func (ic *ItemClass) snapshot() (ItemClassView, error) {
	view := ItemClassView{Name: ic.name}
	items, err := ic.Items(false)
	if err != nil {
		return view, err
	}
	for _, id := range sortedKeys(items) {
		view.Items = append(view.Items, items[id].View())
	}
	return view, nil
}

// View copies the item's fields in their on-disk shape.
func (it *Item) View() ItemView {
	return ItemView{
		ID:           it.id,
		Status:       it.Status,
		DateAccepted: NewJSTime(it.DateAccepted),
		Data:         it.Data,
	}
}
