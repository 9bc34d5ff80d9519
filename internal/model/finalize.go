package model

// Finalize runs the top-down pass over a fully built tree: Array nodes take their
// item's ObjectName (or its PropertyType), and every child's Required flag becomes
// membership of its name in the parent's RequiredProperties.
//
// Finalize must run once, after construction. Running it again is harmless.
func Finalize(d *DataStructure) {
	if d == nil {
		return
	}
	if d.PropertyType == Array {
		switch item := d.Item(); {
		case item == nil:
			d.ObjectName = string(Array)
		case item.ObjectName != "":
			d.ObjectName = item.ObjectName
		default:
			d.ObjectName = string(item.PropertyType)
		}
	}
	for _, child := range d.Properties {
		child.Required = d.HasRequired(child.Name)
		Finalize(child)
	}
}
