// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

/*
Package tpl2oas compiles XML jsontemplate definitions into JSON Schema trees,
assembles them into an OpenAPI document and generates example responses.

Template source:

	<root>
	  <jsontemplates>
	    <jsontemplate name="User">
	      <key name="name" type="String" required="true"/>
	      <key name="age" type="Long" default="18"/>
	      <key name="tags" type="JSONArray" array-size="1-3"/>
	    </jsontemplate>
	    <jsontemplate name="Users">
	      <value type="JSONArray" template="User"/>
	    </jsontemplate>
	  </jsontemplates>
	</root>

Compile a template:

	registry, err := tpl2oas.LoadRegistryFile("templates.xml")
	if err != nil {
		return err
	}

	schema, err := tpl2oas.Compile(registry, "User")
	if err != nil {
		return err
	}

	data, _ := schema.MarshalJSON()
	fmt.Println(string(data))

Attach the schema to a document as the 200 response of GET /users:

	doc, err := tpl2oas.AppendOperationFile("openapi.yaml", tpl2oas.Operation{
		Path:   "/users",
		Method: "get",
		Tag:    "users",
		Schema: schema,
	})
	if err != nil {
		return err
	}

	fmt.Println(doc.Operations())

Generate an example response for a documented operation:

	value, err := tpl2oas.ResponseExample(doc, "/users", "GET", "")
	if err != nil {
		return err
	}

	out, _ := tpl2oas.MarshalExampleJSON(value)
	fmt.Println(string(out))

Convert every annotated template of a source file:

	ops, err := tpl2oas.ScanOperationsFile("templates.xml")
	if err != nil {
		return err
	}

	result, err := tpl2oas.ConvertScanned(ctx, registry, doc, ops, tpl2oas.BatchOptions{})
	if err != nil {
		return err
	}

	fmt.Println(len(result.Operations))
*/
package tpl2oas
