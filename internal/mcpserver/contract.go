package mcpserver

// PostFormatContract describes the canonical Markdown post format that
// LLM consumers should follow when writing course content.
const PostFormatContract = `# Coursepress Post Format Contract

Every post is a Markdown file under the content root. Its location gives the
defaults for section and category; front matter overrides them.

## Structure

` + "```" + `markdown
---
title: Attention is all you need   # title; defaults to the file name
date: 2024-03-01                   # ISO-8601 date; defaults to the sync day
section: ai                        # defaults to the first directory
category: deep-learning            # defaults to the nested directories
difficulty: intermediate           # basic | intermediate | advanced
level: 2                           # defaults from difficulty (1, 2, 3)
number: 5                          # ordering; defaults to the file name prefix
tags: [transformers, nlp]          # YAML list or comma-separated string
slug: attention                    # defaults to the file name
---

Body text in standard Markdown (GitHub flavored).
` + "```" + `

## Rules

1. **Front matter is optional** but, when present, the ` + "`" + `---` + "`" + ` fence must be the
   first line of the file and must be closed.
2. **Placement.** ` + "`" + `<section>/<category...>/<NN>-<name>.md` + "`" + `. Files directly under the
   root belong to the ` + "`" + `general` + "`" + ` section. Section names are lowercased.
3. **Slugs** are lowercase, kebab-case and unique across the whole corpus. When two
   files produce the same slug the later one wins.
4. **Ordering** inside a listing is by ` + "`" + `number` + "`" + ` ascending, then newest date, then slug.
5. **File names** end with ` + "`" + `.md` + "`" + ` and are written in English (Latin characters).
6. **Encoding** is UTF-8 with a trailing newline.
7. **No raw HTML.** It is escaped when the post is rendered.

## Example

` + "```" + `markdown
---
title: Variables and types
section: python
category: basics
difficulty: basic
tags:
  - python
  - beginners
---

# Variables and types

Python variables are names bound to objects.
` + "```" + `

After writing files, call ` + "`" + `sync_content` + "`" + ` so the store and the static export pick them up.
`
