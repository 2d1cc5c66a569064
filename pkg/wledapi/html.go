/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wledapi

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractHTMLMessage turns a device HTML error page into one line of text.
// Only the <body> is read; <script>, <style> and <button> subtrees are
// dropped, entities are decoded and whitespace is collapsed. Input that does
// not parse is returned with its whitespace collapsed.
func ExtractHTMLMessage(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return strings.Join(strings.Fields(body), " ")
	}

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}

	var sb strings.Builder

	collectText(root, &sb)

	return strings.Join(strings.Fields(sb.String()), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}

	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')

		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Button, atom.Head:
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
