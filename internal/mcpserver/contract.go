package mcpserver

// ClientRecordContract describes the client record shape and the update
// rules that LLM consumers should follow when changing clients.
const ClientRecordContract = `# Dealroom Client Record Contract

Every client lives in exactly one bucket: ` + "`current`" + `, ` + "`archived`" + ` or ` + "`prospective`" + `.

## Fields

| Field | Type | Editable via update_client |
|---|---|---|
| id | string | no |
| name | string | yes |
| logo | image URL | yes |
| brandColor | CSS colour, defaults to #6B7280 | yes |
| clientLead | string | yes |
| teamSize | integer >= 0 | yes |
| pitchDate, dateEngaged | human date, e.g. "March 15, 2024" | yes |
| budget | free text, e.g. "$250,000" | yes |
| goals | list of strings | yes (replaces the whole list) |
| companyProfile, projectScope | text | yes |
| boxUrl | external folder link | yes |
| keyContacts | list of {id, name, title, bio} | no |
| actionItems | list of {id, task, assignee, completed, dueDate, description} | via add_action_item / set_action_item_completed |
| comments | list of {id, author, content, timestamp} | via add_comment |
| bigIdeas | list of {id, author, content, timestamp, votes} | via add_idea |
| documents | list of {id, name, type, uploadDate} | via upload_document |

## Rules

1. **Updates are merges.** Only the keys present in the update are overwritten; everything else is kept.
2. **Lists are replaced, not merged.** Sending ` + "`goals`" + ` replaces the whole list.
3. **Optimistic locking.** Pass the ` + "`checksum`" + ` returned by get_client as ` + "`if_match`" + `
   to refuse the update when someone else changed the client in between.
4. **Blank text is ignored.** add_comment, add_idea and add_action_item do nothing for blank text.
5. **Sub-list ids are assigned by the server** and never reused.

## Example update

` + "```" + `json
{"projectScope": "Social strategy for TikTok and Instagram", "goals": ["Grow followers 20%"]}
` + "```" + `
`
