package mcpserver

// ZettelFormat describes the plaintext zettel format that LLM consumers
// should follow when writing zettels.
const ZettelFormat = `# zk Zettel Format

Every zettel is a plain UTF-8 text file named ` + "`<id>.md`" + ` at the top level of
the Zettelkasten directory.

## IDs

- An ID is one or more of ` + "`A-Z a-z 0-9 _ -`" + `. Nothing else: no dots, no slashes.
- The default zettel is ` + "`index`" + `.

## Structure

` + "```" + `
title: Human-readable title
created: 2025-01-15
Body text starts at the first line that is not a metadata line.

See zk@other-zettel for the follow-up.
` + "```" + `

## Rules

1. **Metadata** lines come first, one per line, as ` + "`key: value`" + `. Keys use the
   same alphabet as IDs. The header ends at the first line that does not match.
2. ` + "`title`" + ` is optional and defaults to the ID.
3. **References** are written ` + "`zk@<id>`" + ` anywhere in the body. Surrounding
   punctuation is ignored, so ` + "`(zk@foo).`" + ` refers to ` + "`foo`" + `.
4. A reference to a zettel that does not exist yet is fine; opening it creates
   an empty zettel.
5. Keep a trailing newline.
`
