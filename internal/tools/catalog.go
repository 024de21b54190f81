// Package tools defines the operations the model may request and executes
// them against the CRUD API.
package tools

import "encoding/json"

// Operation names a tool the model can call.
type Operation string

const (
	OpGetAllLists Operation = "get_all_todo_lists"
	OpGetList     Operation = "get_todo_list"
	OpCreateList  Operation = "create_todo_list"
	OpUpdateList  Operation = "update_todo_list"
	OpDeleteList  Operation = "delete_todo_list"
	OpCreateItem  Operation = "create_todo_item"
	OpUpdateItem  Operation = "update_todo_item"
	OpDeleteItem  Operation = "delete_todo_item"
)

// Lookup resolves a tool name sent by the model.
func Lookup(name string) (Operation, bool) {
	op := Operation(name)
	switch op {
	case OpGetAllLists, OpGetList, OpCreateList, OpUpdateList, OpDeleteList,
		OpCreateItem, OpUpdateItem, OpDeleteItem:
		return op, true
	}
	return "", false
}

// ReadOnly reports whether the operation leaves the store unchanged.
func (o Operation) ReadOnly() bool {
	return o == OpGetAllLists || o == OpGetList
}

// Definition describes one tool in JSON-schema terms.
type Definition struct {
	Name        Operation
	Description string
	Parameters  json.RawMessage
}

var catalog = []Definition{
	{
		Name:        OpGetAllLists,
		Description: "Get all todo lists with their items. Use this first to find the IDs of existing lists or items.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
	},
	{
		Name:        OpGetList,
		Description: "Get a single todo list with its items by ID.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list"}
		},"required":["list_id"]}`),
	},
	{
		Name:        OpCreateList,
		Description: "Create a new todo list.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"title":{"type":"string","description":"Title for the new list"}
		},"required":["title"]}`),
	},
	{
		Name:        OpUpdateList,
		Description: "Rename a todo list.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list to rename"},
			"title":{"type":"string","description":"New title for the list"}
		},"required":["list_id","title"]}`),
	},
	{
		Name:        OpDeleteList,
		Description: "Delete an entire todo list and all of its items.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list to delete"}
		},"required":["list_id"]}`),
	},
	{
		Name:        OpCreateItem,
		Description: "Add a new item to a list.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list to add the item to"},
			"title":{"type":"string","description":"Title of the new item"},
			"completed":{"type":"boolean","description":"Whether the item starts completed","default":false}
		},"required":["list_id","title"]}`),
	},
	{
		Name:        OpUpdateItem,
		Description: "Change an item's title or completion status. Provide at least one of title or completed.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list containing the item"},
			"item_id":{"type":"integer","description":"ID of the item"},
			"title":{"type":"string","description":"New title"},
			"completed":{"type":"boolean","description":"New completion status"}
		},"required":["list_id","item_id"]}`),
	},
	{
		Name:        OpDeleteItem,
		Description: "Delete a single item from a list.",
		Parameters: json.RawMessage(`{"type":"object","properties":{
			"list_id":{"type":"integer","description":"ID of the list containing the item"},
			"item_id":{"type":"integer","description":"ID of the item to delete"}
		},"required":["list_id","item_id"]}`),
	},
}

// Catalog returns every tool definition in a fixed order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}
