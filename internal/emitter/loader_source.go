package emitter

// The loader keeps an explicit registry of identity -> module record. A
// module is registered before its factory runs, so a re-entrant require
// during a cycle returns the exports object as it stands at that moment.
// A factory that throws is unregistered so the next require runs it again.

const loaderPrologue = `  var registry = {};

  function referenceError(message) {
    var err = new Error(message);
    err.name = "RuntimeReferenceError";
    return err;
  }

  function load(id) {
    var cached = registry[id];
    if (cached) {
      return cached.exports;
    }
    var record = modules[id];
    if (!record) {
      throw referenceError("Cannot find module '" + id + "'");
    }
    var module = { id: id, exports: {}, loaded: false };
    registry[id] = module;
    function require(specifier) {
      if (!Object.prototype.hasOwnProperty.call(record.deps, specifier)) {
        throw referenceError("Cannot resolve '" + specifier + "' from '" + id + "'");
      }
      return load(record.deps[specifier]);
    }
`

const closureFactory = `    var factory = record.factory;
`

const jsonFactory = `    var factory = new Function("require", "module", "exports", record.code);
`

const loaderEpilogue = `    try {
      factory.call(module.exports, require, module, module.exports);
    } catch (err) {
      delete registry[id];
      throw err;
    }
    module.loaded = true;
    return module.exports;
  }

  return load(entry);
`
