// Package docs описание OpenAPI для /swagger. Пути и схемы соответствуют
// аннотациям обработчиков internal/api/handlers
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/catalog/products": {
            "get": {
                "description": "Выполняет конвейер каталога для одной страницы без состояния сессии",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Страница каталога",
                "parameters": [
                    {"type": "string", "description": "Поисковая строка (алиас q)", "name": "search", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Категории", "name": "category", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Бренды", "name": "brand", "in": "query"},
                    {"type": "number", "description": "Нижняя граница цены", "name": "priceMin", "in": "query"},
                    {"type": "number", "description": "Верхняя граница цены", "name": "priceMax", "in": "query"},
                    {"type": "string", "description": "default | price-asc | price-desc | name", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "Номер страницы", "name": "page", "in": "query"},
                    {"type": "string", "description": "mobile | tablet | desktop", "name": "viewport", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/catalog/view": {
            "get": {
                "description": "Без параметров каталога восстанавливает сохраненные фильтры редиректом 302",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Просмотр каталога в сессии",
                "parameters": [
                    {"type": "string", "description": "Идентификатор сессии каталога", "name": "X-Catalog-Session", "in": "header"},
                    {"type": "integer", "description": "Номер страницы", "name": "page", "in": "query"},
                    {"type": "string", "description": "mobile | tablet | desktop", "name": "viewport", "in": "query"},
                    {"type": "integer", "description": "Ширина окна в CSS-пикселях", "name": "width", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "302": {"description": "Редирект на адрес с восстановленными фильтрами"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/catalog/view/more": {
            "post": {
                "description": "Дописывает следующую страницу в накопительный просмотр сессии",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Показать ещё",
                "parameters": [
                    {"type": "string", "description": "Идентификатор сессии каталога", "name": "X-Catalog-Session", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/catalog/filters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["filters"],
                "summary": "Сохраненные фильтры",
                "parameters": [
                    {"type": "string", "description": "Идентификатор сессии каталога", "name": "X-Catalog-Session", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["filters"],
                "summary": "Очистить сохраненные фильтры",
                "parameters": [
                    {"type": "string", "description": "Идентификатор сессии каталога", "name": "X-Catalog-Session", "in": "header"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.response": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {},
                "success": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo метаданные описания, которые можно переопределить при запуске
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Storefront Catalog API",
	Description:      "Каталог витрины: фильтры, поиск с откатом, пагинация по классу экрана.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
