// Package doctree holds the element tree produced by the markup parser. Tag
// names follow docutils and Sphinx (section, paragraph, list_item,
// block_quote, desc, desc_signature, desc_content, ...), so code inspecting the
// tree reads the same as code written against those node classes.
package doctree
